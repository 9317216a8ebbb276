package syncer

import "github.com/evcraddock/reelreviews/internal/review"

// mergeRemote combines a successful remote listing with local-only records
// from pending. A local-only record whose content matches an unclaimed
// remote record is considered confirmed and dropped. Everything else local
// survives so an unconfirmed submit is never lost.
func mergeRemote(remote []review.Review, pending ...[]review.Review) []review.Review {
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.ID] = true
	}
	claimed := make([]bool, len(remote))

	var local []review.Review
	for _, list := range pending {
		for _, p := range list {
			if !p.LocalOnly || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			if i := matchContent(remote, claimed, p); i >= 0 {
				claimed[i] = true
				continue
			}
			local = append(local, p)
		}
	}

	out := make([]review.Review, 0, len(local)+len(remote))
	out = append(out, local...)
	out = append(out, remote...)
	review.SortNewestFirst(out)
	return review.Dedupe(out)
}

// withConfirmed adds confirmed records missing from a remote listing that
// was read before they were stored.
func withConfirmed(remote, confirmed []review.Review) []review.Review {
	if len(confirmed) == 0 {
		return remote
	}
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.ID] = true
	}
	out := append([]review.Review(nil), remote...)
	for _, c := range confirmed {
		if !seen[c.ID] {
			seen[c.ID] = true
			c.LocalOnly = false
			out = append(out, c)
		}
	}
	review.SortNewestFirst(out)
	return out
}

func matchContent(list []review.Review, claimed []bool, r review.Review) int {
	for i, c := range list {
		if !claimed[i] && !c.LocalOnly && review.SameContent(c, r) {
			return i
		}
	}
	return -1
}

// mergeFallback returns the cached list plus any local-only records in view
// the cache does not hold.
func mergeFallback(cached, view []review.Review) []review.Review {
	seen := make(map[string]bool, len(cached))
	for _, r := range cached {
		seen[r.ID] = true
	}

	out := make([]review.Review, 0, len(cached)+len(view))
	for _, r := range view {
		if r.LocalOnly && !seen[r.ID] {
			out = append(out, r)
		}
	}
	out = append(out, cached...)
	review.SortNewestFirst(out)
	return review.Dedupe(out)
}

// prepend puts r in front of list, dropping any older copy of r.ID.
func prepend(r review.Review, list []review.Review) []review.Review {
	out := make([]review.Review, 0, len(list)+1)
	out = append(out, r)
	for _, x := range list {
		if x.ID != r.ID {
			out = append(out, x)
		}
	}
	return out
}

// reconcile swaps the optimistic record for the stored one. If the stored
// id is already present the optimistic copy is removed instead. It reports
// whether list changed.
func reconcile(list []review.Review, optimistic, stored review.Review) ([]review.Review, bool) {
	idx := -1
	hasStored := false
	for i, r := range list {
		if r.ID == stored.ID {
			hasStored = true
		}
		if r.ID == optimistic.ID {
			idx = i
		}
	}
	if idx < 0 {
		for i, r := range list {
			if r.LocalOnly && review.SameContent(r, optimistic) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return list, false
	}

	out := make([]review.Review, 0, len(list))
	if hasStored {
		out = append(out, list[:idx]...)
		out = append(out, list[idx+1:]...)
		return out, true
	}
	out = append(out, list...)
	stored.LocalOnly = false
	out[idx] = stored
	review.SortNewestFirst(out)
	return out, true
}
