// Package override persists per-product edits layered over catalog rows and
// resolves product identity across key drift (a product addressed today by
// sku may have been saved yesterday under its product_id or row key).
package override

import "catalogapi/internal/domain"

// identifierCandidates lists every key a product can be addressed by, in
// resolution priority order.
func identifierCandidates(product domain.ProductRecord) []string {
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range out {
			if existing == v {
				return
			}
		}
		out = append(out, v)
	}
	add(product.Key)
	add(product.Fields.Fields[domain.RoleSKU])
	add(product.Fields.Fields[domain.RoleProductID])
	if len(product.RowIndices) > 0 {
		add(domain.RowKey(product.RowIndices[0]))
	}
	return out
}

// FindImageOverride resolves the image override for a product. Exact key
// match wins; otherwise the product's alternate identifiers are tried, but an
// alternate only counts when no other product in the catalog also answers to
// it — a shared SKU or ID is treated as "no override found", never guessed.
func FindImageOverride(overrides map[string]domain.ImageOverride, product domain.ProductRecord, all []domain.ProductRecord) (domain.ImageOverride, bool) {
	if o, ok := overrides[product.Key]; ok {
		return o, true
	}
	for _, candidate := range identifierCandidates(product) {
		if candidate == product.Key {
			continue
		}
		o, ok := overrides[candidate]
		if !ok {
			continue
		}
		if identifierShared(candidate, product, all) {
			continue
		}
		return o, true
	}
	return domain.ImageOverride{}, false
}

// FindTextOverrides resolves the per-role text overrides for a product using
// the same identity rules as FindImageOverride.
func FindTextOverrides(overrides map[string]map[string]domain.TextOverride, product domain.ProductRecord, all []domain.ProductRecord) map[string]domain.TextOverride {
	if set, ok := overrides[product.Key]; ok && len(set) > 0 {
		return set
	}
	for _, candidate := range identifierCandidates(product) {
		if candidate == product.Key {
			continue
		}
		set, ok := overrides[candidate]
		if !ok || len(set) == 0 {
			continue
		}
		if identifierShared(candidate, product, all) {
			continue
		}
		return set
	}
	return nil
}

// FindProduct locates the catalog product a key refers to. Exact key match
// wins; otherwise the key may be an alternate identifier, accepted only when
// exactly one product answers to it.
func FindProduct(records []domain.ProductRecord, key string) (domain.ProductRecord, bool) {
	for i := range records {
		if records[i].Key == key {
			return records[i], true
		}
	}
	var match domain.ProductRecord
	count := 0
	for i := range records {
		for _, candidate := range identifierCandidates(records[i]) {
			if candidate == key {
				match = records[i]
				count++
				break
			}
		}
	}
	if count == 1 {
		return match, true
	}
	return domain.ProductRecord{}, false
}

// identifierShared reports whether another product also resolves to the
// candidate identifier, which would make alternate-key resolution ambiguous.
func identifierShared(candidate string, product domain.ProductRecord, all []domain.ProductRecord) bool {
	for i := range all {
		if all[i].Key == product.Key {
			continue
		}
		for _, id := range identifierCandidates(all[i]) {
			if id == candidate {
				return true
			}
		}
	}
	return false
}
