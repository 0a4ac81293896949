package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func newEleicaoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eleicao",
		Short: "Cria eleições, altera status e mostra a apuração",
	}
	cmd.AddCommand(newEleicaoCriarCmd(), newEleicaoStatusCmd(), newEleicaoSincronizarCmd(), newEleicaoResultadosCmd())
	return cmd
}

func newEleicaoCriarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "criar",
		Short: "Cria uma eleição a partir de um arquivo JSON com cargos e candidatos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			arquivo, _ := cmd.Flags().GetString("arquivo")
			conteudo, err := os.ReadFile(arquivo)
			if err != nil {
				return fmt.Errorf("ler %s: %w", arquivo, err)
			}
			var e domain.Eleicao
			if err := json.Unmarshal(conteudo, &e); err != nil {
				return fmt.Errorf("arquivo %s invalido: %w", arquivo, err)
			}

			criada, err := app.Servico.CriarEleicao(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s eleição %s criada (%s, %d cargos)\n", sucesso("✓"), criada.ID, criada.Status, len(criada.Cargos))
			return nil
		},
	}
	cmd.Flags().StringP("arquivo", "f", "", "arquivo JSON da eleição")
	_ = cmd.MarkFlagRequired("arquivo")
	return cmd
}

func newEleicaoStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <eleicao-id> <pending|active|completed>",
		Short: "Altera manualmente o status de uma eleição",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			status := domain.StatusEleicao(args[1])
			if err := app.Servico.AlterarStatus(cmd.Context(), domain.EleicaoID(args[0]), status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s eleição %s agora está %s\n", sucesso("✓"), args[0], corStatus(status))
			return nil
		},
	}
}

func newEleicaoSincronizarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sincronizar",
		Short: "Aplica a janela de datas ao status das eleições pendentes e ativas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			n, err := app.Servico.SincronizarStatus(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d eleição(ões) alterada(s)\n", sucesso("✓"), n)
			return nil
		},
	}
}

func newEleicaoResultadosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resultados <eleicao-id>",
		Short: "Mostra a apuração gravada no banco",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			apuracao, err := app.Servico.Resultados(cmd.Context(), domain.EleicaoID(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cédulas: %s\n", humanize.Comma(apuracao.Cedulas))
			for _, cargo := range apuracao.Cargos {
				fmt.Fprintf(out, "\n%s (%s votos)\n", destaque(cargo.Titulo), humanize.Comma(cargo.Total))
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, p := range cargo.Candidatos {
					fmt.Fprintf(w, "  %s\t%s\t%s%%\n", p.Nome, humanize.Comma(p.Total), humanize.FtoaWithDigits(p.Percentual, 1))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
