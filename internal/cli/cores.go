package cli

import (
	"github.com/fatih/color"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

var (
	sucesso  = color.New(color.FgGreen).SprintFunc()
	destaque = color.New(color.Bold).SprintFunc()
)

func corStatus(s domain.StatusEleicao) string {
	switch s {
	case domain.StatusAtiva:
		return color.GreenString(string(s))
	case domain.StatusEncerrada:
		return color.New(color.FgHiBlack).Sprint(s)
	default:
		return color.YellowString(string(s))
	}
}
