// Package gamedef defines the AI5 titles known to the toolchain and the
// engine generation each one was built with.
package gamedef

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GameID identifies a supported title.
type GameID int

const (
	GameNone GameID = iota
	GameAiShimai
	GameBeyond
	GameDoukyuusei
	GameIsaku
	GameKoihime
	GameYukinojou
	GameElfClassics
)

// Engine is the engine generation, which decides the bytecode layout.
type Engine int

const (
	EngineAI5    Engine = iota // classic AI5 (DOS ports, early Windows)
	EngineAI5WIN               // AI5WIN v2 and later
)

func (e Engine) String() string {
	switch e {
	case EngineAI5:
		return "AI5"
	case EngineAI5WIN:
		return "AI5WIN"
	default:
		return "[unknown]"
	}
}

// GameDef holds the catalogue entry for a title.
type GameDef struct {
	Name        string // command-line name
	ID          GameID
	Engine      Engine
	Description string
}

// Games is the title catalogue.
var Games = []GameDef{
	{"aishimai", GameAiShimai, EngineAI5WIN, "愛姉妹 ～二人の果実～"},
	{"beyond", GameBeyond, EngineAI5WIN, "ビ・ ヨンド ～黒大将に見られてる～"},
	{"doukyuusei", GameDoukyuusei, EngineAI5, "同級生 Windows版"},
	{"isaku", GameIsaku, EngineAI5, "遺作 リニューアル"},
	{"koihime", GameKoihime, EngineAI5, "恋姫"},
	{"yukinojou", GameYukinojou, EngineAI5, "あしたの雪之丞"},
	{"yuno", GameElfClassics, EngineAI5, "この世の果てで恋を唄う少女YU-NO (エルフclassics)"},
}

func (id GameID) String() string {
	if d, ok := Lookup(id); ok {
		return d.Name
	}
	return fmt.Sprintf("game(%d)", int(id))
}

// Lookup finds the catalogue entry for a title.
func Lookup(id GameID) (GameDef, bool) {
	for _, g := range Games {
		if g.ID == id {
			return g, true
		}
	}
	return GameDef{}, false
}

// ParseGameID resolves a command-line name. The error lists the valid names.
func ParseGameID(name string) (GameID, error) {
	for _, g := range Games {
		if strings.EqualFold(g.Name, name) {
			return g.ID, nil
		}
	}
	var sb strings.Builder
	for _, g := range Games {
		fmt.Fprintf(&sb, "\n    %-11s - %s", g.Name, g.Description)
	}
	return GameNone, errors.Errorf("unrecognized game name: %q; valid names are:%s", name, sb.String())
}
