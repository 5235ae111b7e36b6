package drawer

import (
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-refresher/pkg/pipeline/measure"
)

// DOTDrawer is a drawer that writes the graph of the last run in the DOT language.
type DOTDrawer struct {
	graph       graph.Graph[string, string]
	dotFileName string
}

// NewDOTDrawer creates a new DOT drawer writing to dotFileName.
func NewDOTDrawer(dotFileName string) *DOTDrawer {
	return &DOTDrawer{
		dotFileName: dotFileName,
		graph:       graph.New(graph.StringHash, graph.Directed()),
	}
}

func (d *DOTDrawer) Reset() error {
	d.graph = graph.New(graph.StringHash, graph.Directed())
	return nil
}

// AddStep adds a step to the pipeline graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	return nil
}

// AddLink adds a link between parent and child steps.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw creates a DOT file with the pipeline graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}
	defer file.Close()

	err = writeDOT(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.dotFileName)
	}

	return nil
}

// SetTotalTime labels the step with the time elapsed since startTime.
func (d *DOTDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrapf(err, "unable to get %s vertex properties", stepName)
	}

	properties.Attributes["xlabel"] = round(time.Since(startTime)).String()

	return nil
}

const (
	maxRGB      = 240
	failedColor = "#ff0000"
)

// AddMeasure labels the steps with their duration and colours them from blue (fastest) to
// red (slowest). Failed steps are filled in red.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()
	durations := make([]time.Duration, 0, len(metrics))
	for _, mt := range metrics {
		if mt.Count() == 0 {
			continue
		}
		durations = append(durations, mt.AVGDuration())
	}
	if len(durations) == 0 {
		return nil
	}

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})
	minValue := durations[0]
	maxValue := durations[len(durations)-1]

	for name, mt := range metrics {
		if mt.Count() == 0 {
			continue
		}
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get %s vertex properties", name)
		}

		avg := mt.AVGDuration()
		properties.Attributes["xlabel"] = avg.String()

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(avg-minValue) / float64(maxValue-minValue)
		}
		colour, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}
		properties.Attributes["color"] = colour.ToHEX().String()

		if mt.Failed() != nil {
			properties.Attributes["style"] = "filled"
			properties.Attributes["fillcolor"] = failedColor
		}
	}

	return nil
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(time.Millisecond)
	}

	return d.Round(time.Microsecond)
}

const dotTemplate = `strict digraph {
	rankdir="LR";
{{- range .Nodes}}
	"{{.Name}}" [{{range $i, $a := .Attrs}}{{if $i}}, {{end}}{{$a.Key}}="{{$a.Value}}"{{end}}];
{{- end}}
{{- range .Edges}}
	"{{.From}}" -> "{{.To}}";
{{- end}}
}
`

var dotTpl = template.Must(template.New("dot").Parse(dotTemplate))

type dotAttr struct {
	Key, Value string
}

type dotNode struct {
	Name  string
	Attrs []dotAttr
}

type dotEdge struct {
	From, To string
}

type dotGraph struct {
	Nodes []dotNode
	Edges []dotEdge
}

// writeDOT renders g with its vertices and edges sorted so the output is stable.
func writeDOT(g graph.Graph[string, string], wrt io.Writer) error {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	var out dotGraph
	for vertex, targets := range adjacency {
		_, props, err := g.VertexWithProperties(vertex)
		if err != nil {
			return errors.Wrapf(err, "unable to get %s vertex properties", vertex)
		}
		node := dotNode{Name: vertex, Attrs: make([]dotAttr, 0, len(props.Attributes))}
		for k, v := range props.Attributes {
			node.Attrs = append(node.Attrs, dotAttr{Key: k, Value: v})
		}
		sort.Slice(node.Attrs, func(i, j int) bool { return node.Attrs[i].Key < node.Attrs[j].Key })
		out.Nodes = append(out.Nodes, node)

		for target := range targets {
			out.Edges = append(out.Edges, dotEdge{From: vertex, To: target})
		}
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].Name < out.Nodes[j].Name })
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].From != out.Edges[j].From {
			return out.Edges[i].From < out.Edges[j].From
		}
		return out.Edges[i].To < out.Edges[j].To
	})

	return errors.Wrap(dotTpl.Execute(wrt, out), "unable to execute template")
}

var _ Drawer = (*DOTDrawer)(nil)
