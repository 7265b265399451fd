// Command linebalance solves a line file offline and prints the allocation.
//
//	linebalance [flags] line.yaml
//
// Interrupting a solve stops the search and reports the best allocation found.
package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "os/signal"
    "strings"
    "time"

    "linebalance/internal/alloc"
    "linebalance/internal/config"
    "linebalance/internal/integrations"
    "linebalance/internal/integrations/skillcsv"
    "linebalance/internal/model"
    "linebalance/internal/report"
)

func main() {
    log.SetFlags(0)
    log.SetPrefix("linebalance: ")
    os.Exit(run(os.Args[1:]))
}

func splitList(s string) []string {
    if strings.TrimSpace(s) == "" { return nil }
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" { out = append(out, p) }
    }
    return out
}

// run returns the exit status: 0 with an allocation, 2 when none exists or
// none was found, 1 on bad input.
func run(args []string) int {
    fs := flag.NewFlagSet("linebalance", flag.ContinueOnError)
    budget := fs.Duration("budget", 0, "time budget (0 uses the file's timeBudgetMs, else 10s)")
    nodes := fs.Int("nodes", 0, "search node limit (0 = unlimited)")
    maxDen := fs.Int64("max-denominator", 0, "largest accepted denominator (0 = default)")
    skills := fs.String("skills", "", "CSV skill matrix replacing the file's workers")
    prefer := fs.String("prefer", "", "comma-separated worker ids to mark preferred (replaces file flags)")
    exclude := fs.String("exclude", "", "comma-separated worker ids to leave out")
    asJSON := fs.Bool("json", false, "print the JSON response instead of a report")
    verbose := fs.Bool("v", false, "log every improving allocation")
    if err := fs.Parse(args); err != nil { return 1 }
    if fs.NArg() != 1 {
        fmt.Fprintln(fs.Output(), "usage: linebalance [flags] line.yaml")
        fs.PrintDefaults()
        return 1
    }

    req, err := model.ReadSolveRequest(fs.Arg(0))
    if err != nil { log.Print(err); return 1 }
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
    defer stop()

    spec := req.LineSpec
    if *skills != "" {
        spec, err = integrations.ApplyRoster(ctx, spec, skillcsv.Adapter{Path: *skills})
        if err != nil { log.Print(err); return 1 }
    }
    over := model.LineSolveRequest{Exclude: splitList(*exclude)}
    if *prefer != "" { over.Preferred = splitList(*prefer) }
    spec = over.Apply(spec)

    sc := config.Default().Solver.Merge(model.SolverConfig{TimeBudgetMs: req.TimeBudgetMs, NodeLimit: req.NodeLimit, MaxDenominator: *maxDen})
    solver := alloc.Solver{
        MaxDenominator: sc.MaxDenominator,
        TimeBudget:     config.TimeBudget(sc),
        NodeLimit:      sc.NodeLimit,
    }
    if *budget > 0 { solver.TimeBudget = *budget }
    if *nodes > 0 { solver.NodeLimit = *nodes }
    if *verbose {
        solver.OnProgress = func(p alloc.Progress) {
            log.Printf("incumbent: %d workers, %d preferred, %d nodes, %v", p.TotalWorkers, p.PreferredUsed, p.Nodes, p.Elapsed.Round(time.Millisecond))
        }
    }

    out, err := solver.Solve(ctx, spec.Problem())
    if err != nil { log.Print(err); return 1 }
    resp := model.NewSolveResponse(out)
    if *asJSON {
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        if err := enc.Encode(resp); err != nil { log.Print(err); return 1 }
    } else if err := report.Write(os.Stdout, resp); err != nil {
        log.Print(err)
        return 1
    }
    if out.Solution == nil { return 2 }
    return 0
}
