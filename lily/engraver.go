package lily

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/vexedit/vexedit"
)

//go:embed templates/*.ly
var templateFS embed.FS

type (
	// Engraver turns a list of voices into a LilyPond score.
	Engraver struct {
		Template *template.Template
		Renderer *Renderer
	}

	// Line is one staff line of the score: the voice of a measure together
	// with its clef.
	Line struct {
		Voice *vexedit.Voice
		Clef  vexedit.Clef
	}

	scoreData struct {
		Title    string
		Stem     string
		Measures []measureData
	}

	measureData struct {
		Clef   string
		Time   string
		Notes  []string
		Status string
	}
)

// New returns an engraver using the built-in score template.
func New() (*Engraver, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.ly")
	if err != nil {
		return nil, fmt.Errorf("could not parse the score template: %w", err)
	}
	return &Engraver{Template: tmpl, Renderer: NewRenderer()}, nil
}

// Score renders the lines one measure after another. Clefs and time
// signatures are only written when they change.
func (e *Engraver) Score(title string, lines []Line) (string, error) {
	data := scoreData{Title: title, Stem: vexedit.StemUp.String()}
	if len(lines) > 0 {
		data.Stem = lines[0].Voice.Stem().String()
	}
	var prevClef vexedit.Clef = -1
	var prevTime vexedit.TimeSignature
	for i, l := range lines {
		elems, err := e.Renderer.Elements(l.Voice, vexedit.Stave{Index: i, Clef: l.Clef, Time: l.Voice.Time()})
		if err != nil {
			return "", fmt.Errorf("measure %d: %w", i+1, err)
		}
		m := measureData{Notes: make([]string, len(elems)), Status: status(l.Voice.CapacityStatus())}
		for j, el := range elems {
			m.Notes[j] = el.String()
		}
		if l.Clef != prevClef {
			m.Clef = l.Clef.String()
			prevClef = l.Clef
		}
		if t := l.Voice.Time(); t != prevTime {
			m.Time = t.String()
			prevTime = t
		}
		data.Measures = append(data.Measures, m)
	}
	var out bytes.Buffer
	if err := e.Template.ExecuteTemplate(&out, "score.ly", data); err != nil {
		return "", fmt.Errorf(`could not execute template "score.ly": %w`, err)
	}
	return out.String(), nil
}

func status(c vexedit.Capacity) string {
	switch {
	case c.OverFull:
		return "overfull"
	case !c.Exact:
		return "incomplete"
	}
	return ""
}
