// Package report renders solve results as plain text for terminals.
package report

import (
    "fmt"
    "io"
    "strings"
    "text/tabwriter"

    "linebalance/internal/model"
)

// Write prints resp: a summary, the crew of every manual task, and which
// workers stay off the line.
func Write(w io.Writer, resp model.SolveResponse) error {
    tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
    fmt.Fprintf(tw, "status\t%s\n", resp.Status)
    switch resp.Status {
    case "infeasible":
        for _, r := range resp.Reasons {
            fmt.Fprintf(tw, "reason\t%s\n", r)
        }
        writeStats(tw, resp.Stats)
        return tw.Flush()
    case "unknown":
        fmt.Fprintf(tw, "note\tno assignment found before the search stopped\n")
        writeStats(tw, resp.Stats)
        return tw.Flush()
    }
    if !resp.Optimal {
        fmt.Fprintf(tw, "note\tbest found, not proven optimal\n")
    }
    fmt.Fprintf(tw, "bottleneck\t%s\n", resp.Bottleneck)
    fmt.Fprintf(tw, "workers\t%d (%d preferred)\n", resp.TotalWorkers, resp.PreferredUsed)
    writeStats(tw, resp.Stats)
    fmt.Fprintln(tw)

    fmt.Fprintln(tw, "TASK\tCREW\tREQUIRED\tBASE\tEFFECTIVE\tWORKERS")
    for _, t := range resp.Tasks {
        base, eff := t.BaseTime, t.EffectiveTime
        if !t.Paced { base, eff = "-", "unpaced" }
        fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", t.TaskID, t.Count, t.Required, base, eff, strings.Join(t.Workers, ", "))
    }
    fmt.Fprintln(tw)

    var idle []string
    fmt.Fprintln(tw, "WORKER\tPREFERRED\tTASKS")
    for _, wr := range resp.Workers {
        if !wr.Used {
            idle = append(idle, wr.WorkerID)
            continue
        }
        pref := ""
        if wr.Preferred { pref = "yes" }
        fmt.Fprintf(tw, "%s\t%s\t%s\n", wr.WorkerID, pref, strings.Join(wr.Tasks, ", "))
    }
    if len(idle) > 0 {
        fmt.Fprintln(tw)
        fmt.Fprintf(tw, "unused\t%s\n", strings.Join(idle, ", "))
    }
    return tw.Flush()
}

func writeStats(w io.Writer, st model.SolveStats) {
    fmt.Fprintf(w, "search\t%d nodes, %d incumbents, %dms", st.Nodes, st.Incumbents, st.ElapsedMs)
    if st.Stopped != "" { fmt.Fprintf(w, ", stopped: %s", st.Stopped) }
    fmt.Fprintln(w)
}
