// Package opsdesk provides types, interfaces, and helpers for working with the
// opsdesk facilities administration API.
//
// # Overview
//
// The opsdesk package defines the domain types (Facility, InventoryItem,
// AttendanceRecord, HazardObservation, Ticket) and the interfaces of the
// feature clients (FacilitiesClient, InventoryClient, ...). A concrete
// implementation is provided by the opsclient package, which wires
// configuration, transport, authentication and caching.
//
// Getting a client
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
//	  cli, err := opsclient.New(ctx, &opsdesk.Config{APIEndpoint: "https://ops.example.com/api"})
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.Facilities().List(ctx, &opsdesk.ListOptions{Sort: opsdesk.SortBy("name", "asc")})
//	  if err != nil { log.Fatal(err) }
//	  log.Printf("showing %d of %d", len(page.Data), page.Meta.Total)
//	}
//
// # Requests
//
// BuildURL substitutes ":name" placeholders and appends a sorted query
// string; parameters whose value is nil, a nil pointer or "" are left out, so
// sparse Params may be passed freely. DeriveKey scopes a cached read by its
// logical name and merged parameters.
//
// # Envelopes and pagination
//
// Every reply is wrapped in an Envelope {success, message, data}. Paginated
// lists carry a Page {data, meta}; Meta.Total is the authoritative count.
//
// # Errors
//
// Every failure surfaces as an *Error whose Kind is request validation,
// decode, transport or unknown. Field-level diagnostics from client-side
// schemas and from the backend are available through FieldErrors. Helpers
// such as IsValidationError, IsNotFound and IsUnauthorized branch on common
// cases.
//
// # Caching
//
// QueryCache holds decoded reads and coalesces concurrent identical reads
// into a single request. The Cache backends (memory, NATS key-value, chained)
// keep raw GET bodies for ETag revalidation.
package opsdesk
