package parser

import "git.lost.host/meutraa/tally/internal/chart"

type Parser interface {
	Parse(file string) (*chart.SongChart, error)
}
