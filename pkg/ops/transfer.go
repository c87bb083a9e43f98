package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/dvserrors"
)

// Push uploads every unique object referenced by the manifest to a
// remote HTTP CAS, sourcing bytes from the local cache (§4.5 populates
// it on every add, so push never needs the external store). Grounded on
// push.rs's push_with_backend.
func (s *Session) Push(ctx context.Context, remoteBaseURL string) (*TransferSummary, error) {
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}
	remote, err := s.RemoteStore(remoteBaseURL, manifest)
	if err != nil {
		return nil, err
	}

	summary := &TransferSummary{}
	for _, id := range manifest.UniqueOids() {
		has, err := remote.Has(ctx, id)
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeFailed, ErrorDetail: err.Error()})
			continue
		}
		if has {
			summary.Present++
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeAlreadyPresent})
			continue
		}

		f, err := s.FS.Open(s.Layout.CachedObjectPath(id))
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeFailed, ErrorDetail: err.Error()})
			continue
		}
		err = remote.Put(ctx, id, f)
		f.Close()
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeFailed, ErrorDetail: err.Error()})
			continue
		}
		summary.Uploaded++
		summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeUploaded})
		s.Logger.Debug("object pushed", zap.String("oid", id.String()))
	}
	s.Logger.Info("push complete", zap.Int("uploaded", summary.Uploaded), zap.Int("present", summary.Present), zap.Int("failed", summary.Failed))
	return summary, nil
}

// Pull downloads every unique manifest object into the local cache,
// verifying each download's hash against its requested Oid (§9 Open
// Question resolution: this expanded spec performs client-side
// post-pull verification). Grounded on pull.rs.
func (s *Session) Pull(ctx context.Context, remoteBaseURL string) (*TransferSummary, error) {
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}
	remote, err := s.RemoteStore(remoteBaseURL, manifest)
	if err != nil {
		return nil, err
	}

	summary := &TransferSummary{}
	perm := configPerm(s.Config)

	for _, id := range manifest.UniqueOids() {
		if s.Layout.IsCached(id) {
			summary.Present++
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeAlreadyCached})
			continue
		}

		dest := s.Layout.CachedObjectPath(id)
		if err := storeGet(ctx, remote, s.FS, id, dest, perm); err != nil {
			summary.Failed++
			kind := string(dvserrors.KindOf(err))
			if kind == "" {
				kind = err.Error()
			}
			summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeFailed, ErrorDetail: kind})
			continue
		}
		summary.Uploaded++
		summary.Results = append(summary.Results, ObjectTransferResult{Oid: id, Outcome: OutcomeDownloaded})
		s.Logger.Debug("object pulled", zap.String("oid", id.String()))
	}
	s.Logger.Info("pull complete", zap.Int("downloaded", summary.Uploaded), zap.Int("cached", summary.Present), zap.Int("failed", summary.Failed))
	return summary, nil
}
