// Package sheets provides a small HTTP client for the Google Sheets v4 API.
//
// # Overview
//
// shelf reads its catalog from a single spreadsheet where every sheet is a
// subject. Two read-only endpoints are enough:
//
//   - GET /v4/spreadsheets/{id}?fields=sheets.properties lists the sheets
//   - GET /v4/spreadsheets/{id}/values/{sheet} returns the sheet's cells
//
// Both are called with an API key, so the spreadsheet must be shared for
// public reading. The key is never included in returned errors.
//
// # Client Usage
//
//	client, err := sheets.NewClient("", spreadsheetID, apiKey)
//	if err != nil {
//		return err
//	}
//	names, err := client.FetchSheetNames(ctx)
//	rows, err := client.FetchValues(ctx, names[0])
//
// The client also satisfies catalog.Source through SheetNames and Rows.
//
// # Cell Values
//
// The values endpoint returns formatted strings by default. Numbers and
// booleans are accepted too and rendered as text, so the catalog only ever
// deals with [][]string. Rows are ragged: trailing empty cells are omitted by
// the API and padded later by catalog.Records.
//
// # Error Handling
//
// HTTP status codes of 400 and above become "api <path> returned status N";
// malformed bodies become "decode response: ...". Each request has a 10 second
// timeout on top of the caller's context.
package sheets
