package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// Console implementa ports.Notifier escribiendo el reporte de valor a stdout.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime el reporte completo: recomendaciones, partidos con margen
// alto y el desglose de descartes.
func (c *Console) Notify(_ context.Context, report *domain.ValueReport) error {
	now := report.ScannedAt.Format("15:04:05")

	if len(report.Recommendations) == 0 {
		fmt.Fprintf(c.out, "[%s] %d partidos analizados — sin apuestas de valor\n",
			now, report.MatchesAnalyzed)
		c.printSkips(report.Skipped)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d partidos analizados — %d apuestas de valor (bundle %s)\n",
		now, report.MatchesAnalyzed, len(report.Recommendations), shortVersion(report.BundleVersion))

	c.printRecommendations(report.Recommendations)

	if len(report.HighMarginMatches) > 0 {
		fmt.Fprintf(c.out, "\n  ⚠ Margen 1X2 alto en %d partido(s): el edge puede ser ilusorio\n",
			len(report.HighMarginMatches))
		for _, id := range report.HighMarginMatches {
			fmt.Fprintf(c.out, "    - %s\n", id)
		}
	}

	c.printSkips(report.Skipped)
	return nil
}

// printRecommendations imprime la tabla de apuestas ordenada por edge.
func (c *Console) printRecommendations(recs []domain.Recommendation) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Grade", "Partido", "Mercado", "Pick", "Casa", "Cuota", "Modelo", "Edge", "Stake", "EV")

	for i, r := range recs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(r.Grade),
			truncate(r.HomeTeam+" vs "+r.AwayTeam, 32),
			string(r.Market),
			string(r.Outcome),
			r.Bookmaker,
			fmt.Sprintf("%.2f", r.Odds),
			fmt.Sprintf("%.1f%%", r.ModelProb*100),
			fmt.Sprintf("+%.1f%%", r.Edge*100),
			fmt.Sprintf("$%.2f", r.Stake),
			fmt.Sprintf("$%.2f", r.ExpectedValue),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Edge = prob. del modelo − prob. implícita sin overround")
	fmt.Fprintln(c.out, "  Stake = Kelly fraccional con tope por apuesta | EV = valor esperado monetario")
}

// printSkips imprime el desglose de partidos descartados agrupado por motivo.
func (c *Console) printSkips(skips []domain.MatchSkip) {
	if len(skips) == 0 {
		return
	}

	byReason := map[domain.SkipReason]int{}
	for _, s := range skips {
		byReason[s.Reason]++
	}

	fmt.Fprintf(c.out, "\n  Descartados: %d —", len(skips))
	for _, reason := range []domain.SkipReason{
		domain.SkipNoQuotes, domain.SkipFeedError, domain.SkipFeatureError,
		domain.SkipSchemaMismatch, domain.SkipLowConfidence, domain.SkipNoEdge,
	} {
		if n := byReason[reason]; n > 0 {
			fmt.Fprintf(c.out, " %s:%d", reason, n)
		}
	}
	fmt.Fprintln(c.out)
}

// PrintPrediction imprime el detalle por mercado de una predicción individual.
func (c *Console) PrintPrediction(pred *domain.Prediction) {
	fmt.Fprintf(c.out, "\n%s vs %s — %s (bundle %s, confianza %d%%)\n",
		pred.HomeTeam, pred.AwayTeam, pred.KickOff.Format("2006-01-02 15:04"),
		shortVersion(pred.BundleVersion), pred.Confidence)
	if pred.LowConfidence {
		fmt.Fprintln(c.out, "  ⚠ Historial escaso: predicción de baja confianza")
	}
	if pred.LambdaHome > 0 || pred.LambdaAway > 0 {
		fmt.Fprintf(c.out, "  Goles esperados: %.2f - %.2f\n", pred.LambdaHome, pred.LambdaAway)
	}

	if pred.ResultValid {
		fmt.Fprintf(c.out, "  1X2: local %.1f%% | empate %.1f%% | visitante %.1f%%\n",
			pred.Result.Home*100, pred.Result.Draw*100, pred.Result.Away*100)
	}
	printBinary(c.out, "Over 2.5", pred.Over25)
	printBinary(c.out, "BTTS", pred.BTTS)
	printBinary(c.out, "Over 9.5 corners", pred.Over95Corners)
	printBinary(c.out, "Over 10.5 corners", pred.Over105Corners)
	printEstimate(c.out, "Corners totales", pred.TotalCorners)
	printEstimate(c.out, "Tiros totales", pred.TotalShots)
	printEstimate(c.out, "Tiros a puerta", pred.TotalSOT)

	for market, reason := range pred.Skipped {
		fmt.Fprintf(c.out, "  (sin %s: %s)\n", market, reason)
	}
}

// PrintBacktest imprime la comparativa de aciertos y el P&L simulado.
func (c *Console) PrintBacktest(summary *domain.BacktestSummary) {
	fmt.Fprintf(c.out, "\nBacktest %s → %s (%d partidos)\n",
		summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"), summary.MatchesTried)

	table := tablewriter.NewWriter(c.out)
	table.Header("Mercado", "Ensemble", "Modelo goles", "MAE")

	goalRates := map[domain.Market]domain.MarketHitRate{}
	for _, hr := range summary.GoalModel {
		goalRates[hr.Market] = hr
	}
	for _, hr := range summary.Ensemble {
		goalLabel := "-"
		if g, ok := goalRates[hr.Market]; ok && g.Total > 0 {
			goalLabel = fmt.Sprintf("%.1f%% (%d)", g.HitRate*100, g.Total)
		}
		maeLabel := "-"
		if hr.MAE > 0 {
			maeLabel = fmt.Sprintf("%.2f", hr.MAE)
		}
		ensLabel := "-"
		if hr.Total > 0 {
			ensLabel = fmt.Sprintf("%.1f%% (%d)", hr.HitRate*100, hr.Total)
		}
		table.Append(string(hr.Market), ensLabel, goalLabel, maeLabel)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  Apuestas simuladas: %d | Total apostado: $%.2f\n",
		summary.BetsPlaced, summary.TotalStaked)
	fmt.Fprintf(c.out, "  P&L: $%.2f | ROI: %.1f%%\n", summary.ProfitLoss, summary.ROIPct)

	if summary.ProfitLoss > 0 {
		fmt.Fprintln(c.out, "  >>> Staking rentable sobre la ventana evaluada")
	} else {
		fmt.Fprintln(c.out, "  >>> Staking NO rentable sobre la ventana evaluada")
	}
}

// --- helpers ---

func printBinary(w io.Writer, label string, mp domain.MarketProb) {
	if !mp.Valid {
		return
	}
	fmt.Fprintf(w, "  %s: %.1f%%\n", label, mp.Yes*100)
}

func printEstimate(w io.Writer, label string, e domain.Estimate) {
	if !e.Valid {
		return
	}
	fmt.Fprintf(w, "  %s: %.1f\n", label, e.Value)
}

func shortVersion(v string) string {
	if len(v) > 8 {
		return v[:8]
	}
	return v
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
