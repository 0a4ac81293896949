package domain

import (
	"time"
)

type (
	EleicaoID       string
	CargoID         string
	CandidatoID     string
	CodigoVotacaoID string
	VotoID          string
)

// StatusEleicao é alterado apenas pelo agendador ou pelo administrador; a votação confia no valor gravado.
type StatusEleicao string

const (
	StatusPendente  StatusEleicao = "pending"
	StatusAtiva     StatusEleicao = "active"
	StatusEncerrada StatusEleicao = "completed"
)

func (s StatusEleicao) Valido() bool {
	switch s {
	case StatusPendente, StatusAtiva, StatusEncerrada:
		return true
	}
	return false
}

type Eleicao struct {
	ID           EleicaoID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome         string        `gorm:"column:nome;type:text;not null" json:"nome"`
	Descricao    string        `gorm:"column:descricao;type:text" json:"descricao,omitempty"`
	Status       StatusEleicao `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`
	Inicio       time.Time     `gorm:"column:inicio;not null" json:"inicio"`
	Fim          time.Time     `gorm:"column:fim;not null" json:"fim"`
	Cargos       []Cargo       `gorm:"foreignKey:EleicaoID;constraint:OnDelete:CASCADE" json:"cargos,omitempty"`
	CriadoEm     time.Time     `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time     `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

type Cargo struct {
	ID         CargoID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	EleicaoID  EleicaoID   `gorm:"column:eleicao_id;type:char(26);not null;index" json:"eleicao_id"`
	Titulo     string      `gorm:"column:titulo;type:text;not null" json:"titulo"`
	Ordem      int         `gorm:"column:ordem;not null;default:0" json:"ordem"`
	Candidatos []Candidato `gorm:"foreignKey:CargoID;constraint:OnDelete:CASCADE" json:"candidatos"`
}

type Candidato struct {
	ID      CandidatoID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	CargoID CargoID     `gorm:"column:cargo_id;type:char(26);not null;index" json:"cargo_id"`
	Nome    string      `gorm:"column:nome;type:text;not null" json:"nome"`
	FotoURL string      `gorm:"column:foto_url;type:text" json:"foto_url,omitempty"`
}

// CodigoVotacao passa de Usado=false para true exatamente uma vez, junto com a gravação dos votos.
type CodigoVotacao struct {
	ID        CodigoVotacaoID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Codigo    string          `gorm:"column:codigo;type:varchar(32);not null;uniqueIndex" json:"codigo"`
	EleicaoID EleicaoID       `gorm:"column:eleicao_id;type:char(26);not null;index" json:"eleicao_id"`
	Usado     bool            `gorm:"column:usado;not null;default:false" json:"usado"`
	UsadoEm   *time.Time      `gorm:"column:usado_em" json:"usado_em,omitempty"`
	CriadoEm  time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

// Voto é append-only. O índice único (codigo_votacao_id, cargo_id) impede dois votos do mesmo código no mesmo cargo.
type Voto struct {
	ID              VotoID          `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	EleicaoID       EleicaoID       `gorm:"column:eleicao_id;type:char(26);not null;index:idx_votos_eleicao;index:idx_votos_eleicao_criado_em,priority:1" json:"eleicao_id"`
	CargoID         CargoID         `gorm:"column:cargo_id;type:char(26);not null;uniqueIndex:ux_votos_codigo_cargo,priority:2" json:"cargo_id"`
	CandidatoID     CandidatoID     `gorm:"column:candidato_id;type:char(26);not null;index:idx_votos_candidato" json:"candidato_id"`
	CodigoVotacaoID CodigoVotacaoID `gorm:"column:codigo_votacao_id;type:char(26);not null;uniqueIndex:ux_votos_codigo_cargo,priority:1" json:"codigo_votacao_id"`
	CriadoEm        time.Time       `gorm:"column:criado_em;autoCreateTime;index:idx_votos_eleicao_criado_em,priority:2" json:"criado_em"`
}

// Sessao é a identidade do eleitor já autenticado; nunca é aceita sem revalidar código e eleição.
type Sessao struct {
	ID              string          `json:"id"`
	EleicaoID       EleicaoID       `json:"eleicao_id"`
	CodigoVotacaoID CodigoVotacaoID `json:"codigo_votacao_id"`
	ExpiraEm        time.Time       `json:"expira_em"`
}

// Selecao mapeia cada cargo para exatamente um candidato.
type Selecao map[CargoID]CandidatoID

type SelecaoIgnorada struct {
	CargoID     CargoID     `json:"cargo_id"`
	CandidatoID CandidatoID `json:"candidato_id"`
	Motivo      string      `json:"motivo"`
}

type Resgate struct {
	EleicaoID        EleicaoID         `json:"eleicao_id"`
	CodigoVotacaoID  CodigoVotacaoID   `json:"codigo_votacao_id"`
	Votos            []Voto            `json:"-"`
	VotosRegistrados int               `json:"votos"`
	Ignorados        []SelecaoIgnorada `json:"ignorados,omitempty"`
	ConcluidoEm      time.Time         `json:"concluido_em"`
}

// CedulaRegistrada é publicada depois do commit para alimentar os contadores ao vivo.
type CedulaRegistrada struct {
	EleicaoID       EleicaoID       `json:"eleicao_id"`
	CodigoVotacaoID CodigoVotacaoID `json:"codigo_votacao_id"`
	Escolhas        []Escolha       `json:"escolhas"`
	RegistradaEm    time.Time       `json:"registrada_em"`
	// Tentativas conta quantas vezes o worker já devolveu o evento para a fila.
	Tentativas      int             `json:"tentativas,omitempty"`
}

type Escolha struct {
	CargoID     CargoID     `json:"cargo_id"`
	CandidatoID CandidatoID `json:"candidato_id"`
}

type Parcial struct {
	CandidatoID CandidatoID `json:"candidato_id"`
	Nome        string      `json:"nome"`
	Total       int64       `json:"total"`
	Percentual  float64     `json:"percentual"`
}

type ResultadoCargo struct {
	EleicaoID  EleicaoID `json:"eleicao_id"`
	CargoID    CargoID   `json:"cargo_id"`
	Titulo     string    `json:"titulo"`
	Total      int64     `json:"total"`
	Candidatos []Parcial `json:"candidatos"`
}

// Apuracao é a visão consolidada de uma eleição, lida do Postgres ou dos contadores ao vivo.
type Apuracao struct {
	EleicaoID    EleicaoID        `json:"eleicao_id"`
	Cedulas      int64            `json:"cedulas"`
	Cargos       []ResultadoCargo `json:"cargos"`
	AtualizadoEm time.Time        `json:"atualizado_em"`
}

type ParcialHora struct {
	EleicaoID EleicaoID `json:"eleicao_id"`
	Hora      time.Time `json:"hora"`
	Total     int64     `json:"total"`
}

func (Eleicao) TableName() string { return "eleicoes" }

func (Cargo) TableName() string { return "cargos" }

func (Candidato) TableName() string { return "candidatos" }

func (CodigoVotacao) TableName() string { return "codigos_votacao" }

func (Voto) TableName() string { return "votos" }
