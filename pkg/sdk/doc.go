// Package postalgeo embeds the postal code resolution engine in a Go program
// without running the HTTP service.
//
// The client loads the dataset once from the configured backend and answers
// every query from memory:
//
//	client, _ := postalgeo.New(ctx, postalgeo.WithCSV("data/zcta.csv"))
//	defer client.Close()
//
//	pc, ok, _ := client.Geocode(ctx, "90210")
//	near, _ := client.Near(ctx, 47.6062, -122.3321, 5, 10)
//	v, _ := client.Validate(ctx, "00000")
//
// Reload rebuilds the dataset from the backend; queries in flight keep the
// snapshot they started with.
package postalgeo
