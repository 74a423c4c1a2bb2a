package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tinkoff-invest-bot/internal/types"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		cfgs = append(cfgs, table.ColumnConfig{Number: c, Align: text.AlignRight})
	}
	return cfgs
}

func renderWeights(w io.Writer, weights []types.IndexWeight) {
	t := newTable(w, table.Row{"Name", "Ticker", "Weight %"})
	t.SetColumnConfigs(rightAligned(3))
	var total float64
	for _, iw := range weights {
		ticker := iw.Ticker
		if ticker == "" {
			ticker = "?"
		}
		t.AppendRow(table.Row{iw.Name, ticker, fmt.Sprintf("%.2f", iw.Weight)})
		total += iw.Weight
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%.2f", total)})
	t.Render()
}

func renderPortfolio(w io.Writer, p *types.Portfolio) {
	t := newTable(w, table.Row{"Ticker", "FIGI", "Lot", "Balance", "Price", "Lot price", "Volume", "Weight %", "Index %", "Ideal"})
	t.SetColumnConfigs(rightAligned(3, 4, 5, 6, 7, 8, 9, 10))
	for _, h := range p.Holdings {
		if !h.HasShare || !h.HasPrice {
			t.AppendRow(table.Row{h.Ticker, h.FIGI, "", "", "n/a", "", "", "", fmt.Sprintf("%.2f", h.Weight), h.Ideal.StringFixed(2)})
			continue
		}
		t.AppendRow(table.Row{
			h.Ticker, h.FIGI, h.Lot, h.Balance,
			h.Price.String(),
			h.LotPrice.StringFixed(2),
			h.Volume.StringFixed(2),
			h.WeightVolume.StringFixed(2),
			fmt.Sprintf("%.2f", h.Weight),
			h.Ideal.StringFixed(2),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Money", p.Money.StringFixed(2), "", "Total", p.Total.StringFixed(2)})
	t.Render()
}

func renderPlan(w io.Writer, plan *types.Plan) {
	if len(plan.Items) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to buy")
		return
	}
	t := newTable(w, table.Row{"Ticker", "FIGI", "Deficit", "Lot price", "Lots"})
	t.SetColumnConfigs(rightAligned(3, 4, 5))
	for _, it := range plan.Items {
		t.AppendRow(table.Row{it.Ticker, it.FIGI, it.ToBuy.StringFixed(0), it.LotPrice.StringFixed(2), it.LotsToBuy})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "Money: %s\n", plan.Portfolio.Money.StringFixed(2))
}

func renderRebalance(w io.Writer, res *types.RebalanceResult) {
	t := newTable(w, table.Row{"Order ID", "Status", "Lots", "Price"})
	t.SetColumnConfigs(rightAligned(3, 4))
	for _, o := range res.Orders {
		t.AppendRow(table.Row{o.OrderID, o.Status, o.LotsExecuted, o.Price.String()})
	}
	t.Render()
	for _, s := range res.Skipped {
		_, _ = fmt.Fprintln(w, "skipped:", s)
	}
	_, _ = fmt.Fprintf(w, "Mode: %s  Orders: %d  Spent: %s\n", res.Mode, len(res.Orders), res.Spent.StringFixed(2))
}
