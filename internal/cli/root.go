// Pacote cli implementa o urnactl, a ferramenta de linha de comando da secretaria para preparar e acompanhar eleições.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Servico é o que o urnactl usa do voting.Service.
type Servico interface {
	CriarEleicao(ctx context.Context, e domain.Eleicao) (domain.Eleicao, error)
	AlterarStatus(ctx context.Context, id domain.EleicaoID, status domain.StatusEleicao) error
	SincronizarStatus(ctx context.Context) (int, error)
	GerarCodigos(ctx context.Context, id domain.EleicaoID, n int) ([]domain.CodigoVotacao, error)
	ListarCodigos(ctx context.Context, id domain.EleicaoID) ([]domain.CodigoVotacao, error)
	RemoverCodigo(ctx context.Context, id domain.CodigoVotacaoID) error
	Resultados(ctx context.Context, id domain.EleicaoID) (domain.Apuracao, error)
}

// App reúne as dependências já conectadas. Fechar libera conexões.
type App struct {
	Servico  Servico
	Migrar   func() error
	Desfazer func() error
	Clock    domain.Clock
	Fechar   func()
}

// Carregador conecta ao banco só quando um subcomando precisa; --help não abre conexão.
type Carregador func(ctx context.Context) (*App, error)

type contextoApp struct{}

var errSemApp = errors.New("urnactl: dependencias nao carregadas")

func NewRootCommand(carregar Carregador) *cobra.Command {
	root := &cobra.Command{
		Use:           "urnactl",
		Short:         "Administra eleições escolares: códigos de votação, status e apuração",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	conectado := func(cmd *cobra.Command, _ []string) error {
		app, err := carregar(cmd.Context())
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), contextoApp{}, app))
		return nil
	}
	desconectar := func(cmd *cobra.Command, _ []string) {
		if app, err := appDe(cmd); err == nil && app.Fechar != nil {
			app.Fechar()
		}
	}

	for _, sub := range []*cobra.Command{newMigrateCmd(), newEleicaoCmd(), newCodigosCmd()} {
		sub.PersistentPreRunE = conectado
		sub.PersistentPostRun = desconectar
		root.AddCommand(sub)
	}
	return root
}

func appDe(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(contextoApp{}).(*App)
	if !ok || app == nil {
		return nil, errSemApp
	}
	return app, nil
}

func newMigrateCmd() *cobra.Command {
	var desfazer bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações pendentes do banco",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			if desfazer {
				if app.Desfazer == nil {
					return errors.New("urnactl: rollback indisponivel")
				}
				if err := app.Desfazer(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sucesso("✓"), "última migração desfeita")
				return nil
			}
			if err := app.Migrar(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sucesso("✓"), "migrações aplicadas")
			return nil
		},
	}
	cmd.Flags().BoolVar(&desfazer, "desfazer-ultima", false, "desfaz somente a migração mais recente")
	return cmd
}
