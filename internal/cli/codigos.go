package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func newCodigosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codigos",
		Short: "Gera, lista e remove códigos de votação",
	}
	cmd.AddCommand(newCodigosGerarCmd(), newCodigosListarCmd(), newCodigosRemoverCmd())
	return cmd
}

func newCodigosGerarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gerar",
		Short: "Gera novos códigos livres para uma eleição",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			eleicao, _ := cmd.Flags().GetString("eleicao")
			quantidade, _ := cmd.Flags().GetInt("quantidade")

			codigos, err := app.Servico.GerarCodigos(cmd.Context(), domain.EleicaoID(eleicao), quantidade)
			if err != nil {
				return err
			}
			// Um código por linha para facilitar a impressão das cédulas de acesso.
			for _, c := range codigos {
				fmt.Fprintln(cmd.OutOrStdout(), c.Codigo)
			}
			cmd.PrintErrf("%s %s códigos gerados para %s\n", sucesso("✓"), humanize.Comma(int64(len(codigos))), eleicao)
			return nil
		},
	}
	cmd.Flags().String("eleicao", "", "id da eleição")
	cmd.Flags().IntP("quantidade", "n", 0, "quantidade de códigos (1 a 1000)")
	_ = cmd.MarkFlagRequired("eleicao")
	_ = cmd.MarkFlagRequired("quantidade")
	return cmd
}

func newCodigosListarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listar",
		Short: "Lista os códigos de uma eleição e quando foram usados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			eleicao, _ := cmd.Flags().GetString("eleicao")

			codigos, err := app.Servico.ListarCodigos(cmd.Context(), domain.EleicaoID(eleicao))
			if err != nil {
				return err
			}
			if len(codigos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nenhum código gerado")
				return nil
			}

			usados := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCÓDIGO\tSITUAÇÃO\tUSADO")
			for _, c := range codigos {
				situacao, quando := color.GreenString("livre"), "-"
				if c.Usado {
					usados++
					situacao = color.RedString("usado")
					if c.UsadoEm != nil {
						quando = humanize.RelTime(*c.UsadoEm, app.Clock.Agora(), "atrás", "depois")
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Codigo, situacao, quando)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d de %d códigos usados\n", usados, len(codigos))
			return nil
		},
	}
	cmd.Flags().String("eleicao", "", "id da eleição")
	_ = cmd.MarkFlagRequired("eleicao")
	return cmd
}

func newCodigosRemoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remover <codigo-id>",
		Short: "Remove um código que ainda não foi usado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appDe(cmd)
			if err != nil {
				return err
			}
			if err := app.Servico.RemoverCodigo(cmd.Context(), domain.CodigoVotacaoID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s código %s removido\n", sucesso("✓"), args[0])
			return nil
		},
	}
}
