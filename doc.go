// Package txshield holds transactions for a human decision when their risk
// is too high to approve automatically.
//
// Each transaction of a batch is scored by an evaluator. Low and medium
// verdicts are approved by the automatic approver; high and critical ones
// pause their session and prompt a reviewer, whose yes/no/investigate
// answer decides the final disposition. Sessions run concurrently while the
// number of outstanding prompts stays bounded.
//
//	srv, _ := txshield.New(ctx, txshield.WithConfig(cfg))
//	go srv.Terminal().Run(ctx)
//	result, _ := srv.Review(ctx, transactions, account)
//	for _, entry := range result.Entries {
//	    fmt.Println(entry.TransactionID, entry.Status)
//	}
package txshield
