// Package skillcsv reads a worker skill matrix from CSV.
//
// The first row is a header: "worker", an optional "preferred" column, then
// one column per manual task. A cell marks a skill when it is x, y, yes,
// true or 1 (any case); blank or anything else means unqualified.
//
//	worker,preferred,Place Glass,Wash Glass
//	Tashrif,yes,x,
//	Ana,,x,x
package skillcsv

import (
    "context"
    "encoding/csv"
    "errors"
    "fmt"
    "io"
    "os"
    "strings"

    "linebalance/internal/model"
)

// Adapter is an integrations.RosterSource over a CSV file.
type Adapter struct {
    Path string
}

func (a Adapter) Name() string { return "skill-csv" }

func (a Adapter) Workers(ctx context.Context) ([]model.Worker, error) {
    f, err := os.Open(a.Path)
    if err != nil { return nil, err }
    defer f.Close()
    return Parse(f)
}

func marked(cell string) bool {
    switch strings.ToLower(strings.TrimSpace(cell)) {
    case "x", "y", "yes", "true", "1":
        return true
    }
    return false
}

// Parse reads a skill matrix.
func Parse(r io.Reader) ([]model.Worker, error) {
    cr := csv.NewReader(r)
    cr.TrimLeadingSpace = true
    header, err := cr.Read()
    if errors.Is(err, io.EOF) { return nil, errors.New("empty skill matrix") }
    if err != nil { return nil, err }
    if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), "worker") {
        return nil, errors.New(`first column must be "worker"`)
    }
    prefCol := -1
    first := 1
    if len(header) > 1 && strings.EqualFold(strings.TrimSpace(header[1]), "preferred") {
        prefCol = 1
        first = 2
    }
    tasks := make([]string, 0, len(header)-first)
    for i, h := range header[first:] {
        h = strings.TrimSpace(h)
        if h == "" { return nil, fmt.Errorf("column %d: empty task name", first+i+1) }
        tasks = append(tasks, h)
    }
    var out []model.Worker
    seen := map[string]bool{}
    for {
        rec, err := cr.Read()
        if errors.Is(err, io.EOF) { break }
        if err != nil { return nil, err }
        line, _ := cr.FieldPos(0)
        id := strings.TrimSpace(rec[0])
        if id == "" { return nil, fmt.Errorf("line %d: empty worker id", line) }
        if seen[id] { return nil, fmt.Errorf("line %d: duplicate worker %q", line, id) }
        seen[id] = true
        w := model.Worker{ID: id, Skills: []string{}}
        if prefCol >= 0 { w.Preferred = marked(rec[prefCol]) }
        for i, t := range tasks {
            if marked(rec[first+i]) { w.Skills = append(w.Skills, t) }
        }
        out = append(out, w)
    }
    if len(out) == 0 { return nil, errors.New("skill matrix has no workers") }
    return out, nil
}
