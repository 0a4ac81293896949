package domain

import "errors"

// Erros que os adaptadores de armazenamento devolvem já traduzidos do driver.
var (
	ErrNotFound        = errors.New("registro nao encontrado")
	ErrCodigoUtilizado = errors.New("codigo de votacao ja utilizado")
	ErrConflito        = errors.New("violacao de unicidade")
	ErrLockTimeout     = errors.New("tempo de espera pelo lock esgotado")
)
