package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alfabeto sem caracteres ambíguos (0/O, 1/I/L) para códigos digitados por alunos.
const alfabetoCodigo = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const TamanhoCodigo = 8

// NovoCodigo gera um código de votação com entropia de crypto/rand.
func NovoCodigo() (string, error) {
	limite := big.NewInt(int64(len(alfabetoCodigo)))
	buf := make([]byte, TamanhoCodigo)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limite)
		if err != nil {
			return "", fmt.Errorf("ids: gerar codigo: %w", err)
		}
		buf[i] = alfabetoCodigo[n.Int64()]
	}
	return string(buf), nil
}
