package assignment

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

// minHintRatio is the similarity needed to suggest an existing workshop for an unknown name.
const minHintRatio = 0.8

// UploadRow is one parsed line of a choice file.
type UploadRow struct {
	Student string   `json:"student" validate:"required"`
	Choices []string `json:"choices"`
}

// Upload is the parsed content of the choice files of both bands.
type Upload struct {
	Band1 []UploadRow `json:"band1" validate:"dive"`
	Band2 []UploadRow `json:"band2" validate:"dive"`
}

func (up Upload) In(b workshop.Band) []UploadRow {
	if b == workshop.Band2 {
		return up.Band2
	}
	return up.Band1
}

func (up Upload) IsEmpty() bool { return len(up.Band1) == 0 && len(up.Band2) == 0 }

// ImportResult is a normalized Upload. NewStudents and NewWorkshops must be created by the caller.
type ImportResult struct {
	Choices      ChoiceSet
	NewStudents  []string
	NewWorkshops []workshop.Workshop // names and bands only
	Problems     []Problem
}

type uploadNormalizer struct {
	active       map[string]string // normalized -> name
	archived     map[string]string
	activeNames  []string
	students     map[string]string
	newWorkshops map[string]*workshop.Workshop
	res          ImportResult
}

// NormalizeUpload matches the uploaded names against the known students and workshops.
// Choice values are cut at the first colon and compared case- and whitespace-insensitively.
// Workshops are all known workshops, archived ones included.
func NormalizeUpload(up Upload, students []student.Student, workshops []workshop.Workshop) ImportResult {
	n := &uploadNormalizer{
		active:       make(map[string]string),
		archived:     make(map[string]string),
		students:     make(map[string]string, len(students)),
		newWorkshops: make(map[string]*workshop.Workshop),
		res: ImportResult{
			Choices:      ChoiceSet{Band1: map[string][]string{}, Band2: map[string][]string{}},
			NewStudents:  make([]string, 0),
			NewWorkshops: make([]workshop.Workshop, 0),
			Problems:     make([]Problem, 0),
		},
	}
	for _, w := range workshops {
		if w.IsArchived() {
			n.archived[workshop.NormalizeName(w.Name)] = w.Name
		} else {
			n.active[workshop.NormalizeName(w.Name)] = w.Name
			n.activeNames = append(n.activeNames, w.Name)
		}
	}
	for _, s := range students {
		n.students[workshop.NormalizeName(s.Name)] = s.Name
	}

	for _, b := range workshop.AllBands {
		for _, row := range up.In(b) {
			n.row(b, row)
		}
	}

	for i := range n.res.NewWorkshops {
		n.res.NewWorkshops[i] = *n.newWorkshops[workshop.NormalizeName(n.res.NewWorkshops[i].Name)]
	}
	return n.res
}

func (n *uploadNormalizer) row(b workshop.Band, row UploadRow) {
	name := workshop.CleanName(row.Student)
	if name == "" {
		return
	}
	if known, ok := n.students[workshop.NormalizeName(name)]; ok {
		name = known
	} else {
		n.students[workshop.NormalizeName(name)] = name
		n.res.NewStudents = append(n.res.NewStudents, name)
	}

	bandChoices := n.res.Choices.In(b)
	if _, dup := bandChoices[name]; dup {
		n.res.Problems = append(n.res.Problems, bandProblem(b, name, "listed more than once, only the first row is used"))
		return
	}

	choices := make([]string, 0, 2)
	for _, raw := range row.Choices {
		if len(choices) == 2 {
			if value := choiceValue(raw); value != "" {
				n.res.Problems = append(n.res.Problems, bandProblem(b, name, "more than two choices, %q ignored", value))
			}
			continue
		}
		if ws, ok := n.workshop(b, name, raw); ok {
			choices = append(choices, ws)
		}
	}
	bandChoices[name] = choices
}

// workshop resolves one choice value to a workshop name, registering unknown names as new workshops.
func (n *uploadNormalizer) workshop(b workshop.Band, studentName, raw string) (string, bool) {
	value := choiceValue(raw)
	if value == "" {
		return "", false
	}
	norm := workshop.NormalizeName(value)

	if name, ok := n.active[norm]; ok {
		return name, true
	}
	if name, ok := n.archived[norm]; ok {
		n.res.Problems = append(n.res.Problems, bandProblem(b, studentName, "choice %q is archived and is ignored", name))
		return "", false
	}

	if w, ok := n.newWorkshops[norm]; ok {
		if !w.Bands.Has(b) {
			w.Bands = append(w.Bands, b).Normalized()
		}
		return w.Name, true
	}

	n.newWorkshops[norm] = &workshop.Workshop{Name: value, Bands: workshop.Bands{b}}
	n.res.NewWorkshops = append(n.res.NewWorkshops, workshop.Workshop{Name: value})
	if hint := n.closest(value); hint != "" {
		n.res.Problems = append(n.res.Problems, bandProblem(b, studentName, "new workshop %q created, did you mean %q?", value, hint))
	} else {
		n.res.Problems = append(n.res.Problems, bandProblem(b, studentName, "new workshop %q created", value))
	}
	return value, true
}

// choiceValue strips the schedule details following the first colon.
func choiceValue(raw string) string {
	return workshop.CleanName(strings.SplitN(raw, ":", 2)[0])
}

// closest returns the most similar active workshop name, if similar enough.
func (n *uploadNormalizer) closest(value string) string {
	var best string
	var bestRatio float64
	chars := strings.Split(strings.ToLower(value), "")
	for _, name := range n.activeNames {
		ratio := difflib.NewMatcher(chars, strings.Split(strings.ToLower(name), "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = name, ratio
		}
	}
	if bestRatio < minHintRatio {
		return ""
	}
	return best
}
