// Package opsclient provides the primary entry point for constructing an
// opsdesk API client that implements the opsdesk.Client interface.
//
// It layers configuration, HTTP transport, authentication and the query
// cache on top of the feature interfaces and types defined in the opsdesk
// package. Most applications should import opsclient to build a client, then
// use the returned opsdesk.Client to reach the feature clients, for example
// Facilities(), Tickets() or Hazards().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/opsdesk/pkg/opsclient"
//	  "github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With a token you already have:
//	  cli, err := opsclient.NewWithToken(ctx, "https://ops.example.com/api", "eyJhbGciOi...")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or sign in with email and password. The client signs in again
//	  // whenever the backend rejects the token.
//	  cli, err = opsclient.New(ctx, &opsdesk.Config{
//	    APIEndpoint: "https://ops.example.com/api",
//	    Username:    "ada@example.com",
//	    Password:    "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.Facilities().List(ctx, &opsdesk.ListOptions{Limit: 10})
//	  if err != nil { log.Fatal(err) }
//	  log.Printf("showing %d of %d facilities", len(page.Data), page.Meta.Total)
//	}
//
// # Helpers
//
// The package also provides convenience constructors NewWithEndpoint,
// NewWithToken and NewWithPassword that wrap New with the appropriate
// configuration.
package opsclient
