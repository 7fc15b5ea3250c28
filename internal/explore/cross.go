package explore

import (
	"context"
	"math"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

// crossDataset joins the fixed dataset pairs: orders with order items on
// order_id (inner), customers with orders on customer_id (left). Missing
// datasets or key columns simply skip the join.
func (a *Analyzer) crossDataset(ctx context.Context, catalog *dataset.Catalog) CrossDataset {
	cross := CrossDataset{
		Relationships:  []Relationship{},
		MergedInsights: []MergedInsight{},
	}

	orders, hasOrders := catalog.Get(config.DatasetOrders)
	items, hasItems := catalog.Get(config.DatasetOrderItems)

	if hasOrders && hasItems && orders.HasColumn("order_id") && items.HasColumn("order_id") {
		joined := orders.Frame.InnerJoin(items.Frame, "order_id")
		if joined.Error() == nil && joined.Nrow() > 0 {
			merged := &dataset.Dataset{Frame: joined, Rows: joined.Nrow(), Cols: joined.Ncol()}

			if merged.HasColumn("price") && merged.HasColumn("freight_value") {
				prices := joined.Col("price").Float()
				freights := joined.Col("freight_value").Float()

				var sum float64
				var n int
				for i := 0; i < len(prices) && i < len(freights); i++ {
					if math.IsNaN(prices[i]) || math.IsNaN(freights[i]) {
						continue
					}
					sum += prices[i] + freights[i]
					n++
				}

				if n > 0 {
					cross.Relationships = append(cross.Relationships, Relationship{
						Datasets:      []string{config.DatasetOrders, config.DatasetOrderItems},
						MergeKey:      "order_id",
						MergedRecords: joined.Nrow(),
						Insights: map[string]float64{
							"average_order_value":    round2(sum / float64(n)),
							"total_records_analyzed": float64(joined.Nrow()),
						},
					})

					a.logger.InfoContext(ctx, "joined orders with order items",
						"merge_key", "order_id",
						"merged_records", joined.Nrow(),
					)
				}
			}
		}
	}

	customers, hasCustomers := catalog.Get(config.DatasetCustomers)

	if hasCustomers && hasOrders && customers.HasColumn("customer_id") && orders.HasColumn("customer_id") {
		joined := customers.Frame.LeftJoin(orders.Frame, "customer_id")
		if joined.Error() == nil && joined.Nrow() > 0 {
			merged := &dataset.Dataset{Frame: joined, Rows: joined.Nrow(), Cols: joined.Ncol()}

			if merged.HasColumn("customer_state") {
				top := dataset.TopValues(merged.ValueCounts("customer_state"), topValueCount)
				if len(top) > 0 {
					cross.MergedInsights = append(cross.MergedInsights, MergedInsight{
						Analysis:  "geographic_distribution",
						TopStates: top,
					})

					a.logger.InfoContext(ctx, "joined customers with orders",
						"merge_key", "customer_id",
						"merged_records", joined.Nrow(),
					)
				}
			}
		}
	}

	return cross
}
