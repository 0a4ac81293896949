package postgres

import (
	"time"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

type eleicaoModel struct {
	ID           string       `gorm:"column:id;primaryKey"`
	Nome         string       `gorm:"column:nome"`
	Descricao    string       `gorm:"column:descricao"`
	Status       string       `gorm:"column:status"`
	Inicio       time.Time    `gorm:"column:inicio"`
	Fim          time.Time    `gorm:"column:fim"`
	CriadoEm     time.Time    `gorm:"column:criado_em"`
	AtualizadoEm time.Time    `gorm:"column:atualizado_em"`
	Cargos       []cargoModel `gorm:"foreignKey:EleicaoID;references:ID"`
}

func (eleicaoModel) TableName() string { return "eleicoes" }

type cargoModel struct {
	ID         string           `gorm:"column:id;primaryKey"`
	EleicaoID  string           `gorm:"column:eleicao_id"`
	Titulo     string           `gorm:"column:titulo"`
	Ordem      int              `gorm:"column:ordem"`
	Candidatos []candidatoModel `gorm:"foreignKey:CargoID;references:ID"`
}

func (cargoModel) TableName() string { return "cargos" }

type candidatoModel struct {
	ID      string `gorm:"column:id;primaryKey"`
	CargoID string `gorm:"column:cargo_id"`
	Nome    string `gorm:"column:nome"`
	FotoURL string `gorm:"column:foto_url"`
}

func (candidatoModel) TableName() string { return "candidatos" }

type codigoModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Codigo    string     `gorm:"column:codigo"`
	EleicaoID string     `gorm:"column:eleicao_id"`
	Usado     bool       `gorm:"column:usado"`
	UsadoEm   *time.Time `gorm:"column:usado_em"`
	CriadoEm  time.Time  `gorm:"column:criado_em"`
}

func (codigoModel) TableName() string { return "codigos_votacao" }

type votoModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	EleicaoID       string    `gorm:"column:eleicao_id"`
	CargoID         string    `gorm:"column:cargo_id"`
	CandidatoID     string    `gorm:"column:candidato_id"`
	CodigoVotacaoID string    `gorm:"column:codigo_votacao_id"`
	CriadoEm        time.Time `gorm:"column:criado_em"`
}

func (votoModel) TableName() string { return "votos" }

func (m eleicaoModel) toDomain(incluirCargos bool) domain.Eleicao {
	e := domain.Eleicao{
		ID:           domain.EleicaoID(m.ID),
		Nome:         m.Nome,
		Descricao:    m.Descricao,
		Status:       domain.StatusEleicao(m.Status),
		Inicio:       m.Inicio,
		Fim:          m.Fim,
		CriadoEm:     m.CriadoEm,
		AtualizadoEm: m.AtualizadoEm,
	}
	if incluirCargos {
		e.Cargos = make([]domain.Cargo, len(m.Cargos))
		for i, c := range m.Cargos {
			e.Cargos[i] = c.toDomain()
		}
	}
	return e
}

func fromDomainEleicao(e domain.Eleicao) eleicaoModel {
	model := eleicaoModel{
		ID:           string(e.ID),
		Nome:         e.Nome,
		Descricao:    e.Descricao,
		Status:       string(e.Status),
		Inicio:       e.Inicio,
		Fim:          e.Fim,
		CriadoEm:     e.CriadoEm,
		AtualizadoEm: e.AtualizadoEm,
	}
	if len(e.Cargos) > 0 {
		model.Cargos = make([]cargoModel, len(e.Cargos))
		for i, c := range e.Cargos {
			model.Cargos[i] = fromDomainCargo(c)
		}
	}
	return model
}

func (m cargoModel) toDomain() domain.Cargo {
	c := domain.Cargo{
		ID:         domain.CargoID(m.ID),
		EleicaoID:  domain.EleicaoID(m.EleicaoID),
		Titulo:     m.Titulo,
		Ordem:      m.Ordem,
		Candidatos: make([]domain.Candidato, len(m.Candidatos)),
	}
	for i, cand := range m.Candidatos {
		c.Candidatos[i] = domain.Candidato{
			ID:      domain.CandidatoID(cand.ID),
			CargoID: domain.CargoID(cand.CargoID),
			Nome:    cand.Nome,
			FotoURL: cand.FotoURL,
		}
	}
	return c
}

func fromDomainCargo(c domain.Cargo) cargoModel {
	model := cargoModel{
		ID:         string(c.ID),
		EleicaoID:  string(c.EleicaoID),
		Titulo:     c.Titulo,
		Ordem:      c.Ordem,
		Candidatos: make([]candidatoModel, len(c.Candidatos)),
	}
	for i, cand := range c.Candidatos {
		model.Candidatos[i] = candidatoModel{
			ID:      string(cand.ID),
			CargoID: string(c.ID),
			Nome:    cand.Nome,
			FotoURL: cand.FotoURL,
		}
	}
	return model
}

func (m codigoModel) toDomain() domain.CodigoVotacao {
	return domain.CodigoVotacao{
		ID:        domain.CodigoVotacaoID(m.ID),
		Codigo:    m.Codigo,
		EleicaoID: domain.EleicaoID(m.EleicaoID),
		Usado:     m.Usado,
		UsadoEm:   m.UsadoEm,
		CriadoEm:  m.CriadoEm,
	}
}

func fromDomainCodigo(c domain.CodigoVotacao) codigoModel {
	return codigoModel{
		ID:        string(c.ID),
		Codigo:    c.Codigo,
		EleicaoID: string(c.EleicaoID),
		Usado:     c.Usado,
		UsadoEm:   c.UsadoEm,
		CriadoEm:  c.CriadoEm,
	}
}

func fromDomainVoto(v domain.Voto) votoModel {
	return votoModel{
		ID:              string(v.ID),
		EleicaoID:       string(v.EleicaoID),
		CargoID:         string(v.CargoID),
		CandidatoID:     string(v.CandidatoID),
		CodigoVotacaoID: string(v.CodigoVotacaoID),
		CriadoEm:        v.CriadoEm,
	}
}
