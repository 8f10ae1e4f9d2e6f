// Package models contains the GORM persistence models mirrored from the
// exchange's spot-market APIs. Rows are owned by the upstream system; this
// service only upserts what it fetches, so models carry no behaviour beyond
// their sync-key descriptors.
package models
