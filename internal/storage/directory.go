package storage

import "context"

// Directory combines the stores' contact lookups into the recipient
// directory the notification adapter consumes.
type Directory struct {
	apps       *ApplicationStore
	committees *CommitteeStore
}

func NewDirectory(apps *ApplicationStore, committees *CommitteeStore) *Directory {
	return &Directory{apps: apps, committees: committees}
}

func (d *Directory) ApplicantEmail(ctx context.Context, applicationID string) (string, error) {
	return d.apps.ApplicantEmail(ctx, applicationID)
}

func (d *Directory) CommitteeEmail(ctx context.Context, committeeID string) (string, error) {
	return d.committees.CommitteeEmail(ctx, committeeID)
}
