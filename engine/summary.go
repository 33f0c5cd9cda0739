package engine

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// String formats the simulation as a text table, one row per cashflow in
// phase order.
func (r SimulationResult) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)

	table.SetHeader([]string{"Asset", "Phase", "Flow", "Reason", "Amount"})

	data := make([][]string, 0, len(r.Cashflows))
	for _, flow := range r.Cashflows {
		data = append(data, []string{
			flow.Asset.String(),
			string(flow.InvolvementType),
			string(flow.CashflowType),
			string(flow.Reason),
			flow.SignedAmount().String(),
		})
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})
	table.Render()

	return fmt.Sprintf("Simulation %s %s %s:\n%s",
		r.Order.TradeType, r.Order.Amount, r.Order.TradingPair.Name(), tableString.String())
}
