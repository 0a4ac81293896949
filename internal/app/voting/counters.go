package voting

import (
	"fmt"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func CounterKeyCedulas(id domain.EleicaoID) string {
	return fmt.Sprintf("eleicao:%s:cedulas", id)
}

func CounterKeyCandidato(eleicaoID domain.EleicaoID, cargoID domain.CargoID, candidatoID domain.CandidatoID) string {
	return fmt.Sprintf("eleicao:%s:cargo:%s:candidato:%s", eleicaoID, cargoID, candidatoID)
}

// DeltasCedula traduz uma cédula registrada nos incrementos dos contadores ao vivo.
func DeltasCedula(c domain.CedulaRegistrada) map[string]int64 {
	deltas := make(map[string]int64, len(c.Escolhas)+1)
	deltas[CounterKeyCedulas(c.EleicaoID)] = 1
	for _, e := range c.Escolhas {
		deltas[CounterKeyCandidato(c.EleicaoID, e.CargoID, e.CandidatoID)]++
	}
	return deltas
}
