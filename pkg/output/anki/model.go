// Package anki builds Anki .apkg packages from exported cards.
//
// A package is a zip archive holding collection.anki2, an SQLite database in
// the Anki schema 11 layout, and a media manifest. Every card becomes one note
// of the "Duoload Vocabulary" note type with Front, Back and Example fields.
package anki

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	// ModelID is the fixed note type id. Keeping it stable lets Anki merge
	// repeated imports into the same note type.
	ModelID int64 = 1607392319

	// ModelName is the note type name shown in Anki.
	ModelName = "Duoload Vocabulary"

	// DeckID is the fixed deck id.
	DeckID int64 = 2059400110

	// DefaultDeckName is used when the builder is given no name.
	DefaultDeckName = "Duocards Vocabulary"

	// DeckDescription is shown on the deck overview screen.
	DeckDescription = "Vocabulary imported from Duocards"

	// QuestionFormat is the front template.
	QuestionFormat = "{{Front}}"

	// AnswerFormat is the back template. The example block only renders when
	// the Example field is non-empty.
	AnswerFormat = "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}\n\n{{#Example}}<div class=\"example\">{{Example}}</div>{{/Example}}"

	modelCSS = ".card {\n font-family: arial;\n font-size: 20px;\n text-align: center;\n color: black;\n background-color: white;\n}\n\n.example {\n font-style: italic;\n margin-top: 1em;\n}\n"
)

// FieldNames are the note fields in order.
var FieldNames = []string{"Front", "Back", "Example"}

type fieldJSON struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type templateJSON struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

type modelJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      int            `json:"type"`
	Mod       int64          `json:"mod"`
	Usn       int            `json:"usn"`
	SortF     int            `json:"sortf"`
	Did       int64          `json:"did"`
	Tmpls     []templateJSON `json:"tmpls"`
	Flds      []fieldJSON    `json:"flds"`
	CSS       string         `json:"css"`
	LatexPre  string         `json:"latexPre"`
	LatexPost string         `json:"latexPost"`
	Tags      []string       `json:"tags"`
	Vers      []int          `json:"vers"`
	Req       []any          `json:"req"`
}

type deckJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	LrnToday  [2]int `json:"lrnToday"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
}

// collectionJSON holds the JSON columns of the col row.
type collectionJSON struct {
	Conf   string
	Models string
	Decks  string
	DConf  string
}

func newDeck(id int64, name, desc string, mod int64) deckJSON {
	return deckJSON{
		ID:        id,
		Name:      name,
		Desc:      desc,
		Mod:       mod,
		Usn:       -1,
		Conf:      1,
		ExtendNew: 10,
		ExtendRev: 50,
	}
}

// buildCollectionJSON renders the collection metadata for deckName at now.
func buildCollectionJSON(deckName string, now time.Time) (collectionJSON, error) {
	mod := now.Unix()

	fields := make([]fieldJSON, len(FieldNames))
	for i, name := range FieldNames {
		fields[i] = fieldJSON{Name: name, Ord: i, Font: "Arial", Media: []string{}, Size: 20}
	}

	model := modelJSON{
		ID:    strconv.FormatInt(ModelID, 10),
		Name:  ModelName,
		Mod:   mod,
		Usn:   -1,
		Did:   DeckID,
		Flds:  fields,
		CSS:   modelCSS,
		Tags:  []string{},
		Vers:  []int{},
		Req:   []any{[]any{0, "all", []int{0}}},
		Tmpls: []templateJSON{{Name: "Card 1", QFmt: QuestionFormat, AFmt: AnswerFormat}},
		LatexPre: "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
			"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n" +
			"\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n",
		LatexPost: "\\end{document}",
	}

	decks := map[string]deckJSON{
		"1":                           newDeck(1, "Default", "", mod),
		strconv.FormatInt(DeckID, 10): newDeck(DeckID, deckName, DeckDescription, mod),
	}

	conf := map[string]any{
		"activeDecks":   []int64{1},
		"curDeck":       1,
		"newSpread":     0,
		"collapseTime":  1200,
		"timeLim":       0,
		"estTimes":      true,
		"dueCounts":     true,
		"curModel":      nil,
		"nextPos":       1,
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
	}

	dconf := map[string]any{
		"1": map[string]any{
			"id":       1,
			"name":     "Default",
			"mod":      0,
			"usn":      0,
			"maxTaken": 60,
			"autoplay": true,
			"timer":    0,
			"replayq":  true,
			"dyn":      false,
			"new": map[string]any{
				"delays":        []float64{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"order":         1,
				"perDay":        20,
				"bury":          true,
				"separate":      true,
			},
			"rev": map[string]any{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"lapse": map[string]any{
				"delays":      []float64{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
		},
	}

	var out collectionJSON
	for _, item := range []struct {
		dst *string
		v   any
	}{
		{&out.Conf, conf},
		{&out.Models, map[string]modelJSON{model.ID: model}},
		{&out.Decks, decks},
		{&out.DConf, dconf},
	} {
		data, err := json.Marshal(item.v)
		if err != nil {
			return collectionJSON{}, err
		}
		*item.dst = string(data)
	}

	return out, nil
}
