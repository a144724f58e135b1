// Package retention is the knowledge retention engine: it enriches content items with
// AI-generated study aids, schedules spaced reviews, and runs active-recall attempts.
//
// All provider traffic goes through Gateway and all persistence through Store, so every
// component can be exercised with in-memory doubles.
package retention
