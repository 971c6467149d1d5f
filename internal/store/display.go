package store

import "strings"

// Attribute is one attribute value of a feature, keyed by the internal
// attribute name.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func lookup(attrs []Attribute, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// joinNonEmpty joins the non-empty parts with single spaces.
func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// DisplayString renders a feature the way curators write it, e.g.
// "Missense BRAF p.V600E" or "Fusion EML4-ALK". Feature kinds without a
// dedicated format join their attribute values in order. Missing values
// are skipped.
func DisplayString(featureName string, attrs []Attribute) string {
	get := func(name string) string { return lookup(attrs, name) }

	switch featureName {
	case "rearrangement":
		gene1, gene2 := get("gene1"), get("gene2")
		if gene1 != "" && gene2 != "" {
			return joinNonEmpty(get("rearrangement_type"), gene1+"-"+gene2, get("locus"))
		}
		return joinNonEmpty(get("rearrangement_type"), get("locus"))

	case "somatic_mutation", "germline_mutation":
		return joinNonEmpty(get("mutation_type"), get("gene"), get("protein_change"))

	case "copy_number":
		return joinNonEmpty(get("gene"), get("direction"), get("locus"))

	case "microsatellite_instability":
		return get("direction")

	case "mutational_signature":
		if n := get("signature_number"); n != "" {
			return "COSMIC " + n
		}
		return ""

	case "mutational_burden", "neoantigen_burden":
		return get("burden")

	case "knockout", "silencing":
		gene, technique := get("gene"), get("technique")
		if technique != "" {
			return joinNonEmpty(gene, "("+technique+")")
		}
		return gene

	case "aneuploidy":
		return get("effect")

	default:
		values := make([]string, len(attrs))
		for i, a := range attrs {
			values[i] = strings.TrimSpace(a.Value)
		}
		return joinNonEmpty(values...)
	}
}
