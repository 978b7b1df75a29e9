package parser

import (
	"io"

	"git.lost.host/meutraa/encore/internal/game"
)

type Parser interface {
	Parse(r io.Reader) (*game.Chart, error)
}
