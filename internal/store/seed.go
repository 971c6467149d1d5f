package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by Seed.
//
//	features:
//	  - name: somatic_mutation
//	    readable_name: Somatic Variant
//	    attributes:
//	      - {name: gene, readable_name: Gene, type: gene}
//	sources:
//	  - {doi: 10.1056/NEJMoa1203421, cite_text: "Hauschild et al."}
//	assertions:
//	  - disease: Melanoma
//	    therapy_name: Dabrafenib
//	    predictive_implication: FDA-Approved
//	    validated: true
//	    sources: [10.1056/NEJMoa1203421]
//	    features:
//	      - feature: somatic_mutation
//	        attributes: {gene: BRAF}
type SeedFile struct {
	Features   []SeedFeatureDefinition `yaml:"features"`
	Sources    []SeedSource            `yaml:"sources"`
	Assertions []SeedAssertion         `yaml:"assertions"`
}

// SeedFeatureDefinition declares a feature kind and its attributes.
type SeedFeatureDefinition struct {
	Name         string                    `yaml:"name"`
	ReadableName string                    `yaml:"readable_name"`
	Attributes   []SeedAttributeDefinition `yaml:"attributes"`
}

// SeedAttributeDefinition declares one attribute of a feature kind.
type SeedAttributeDefinition struct {
	Name         string `yaml:"name"`
	ReadableName string `yaml:"readable_name"`
	Type         string `yaml:"type"`
}

// SeedSource declares a literature source.
type SeedSource struct {
	DOI        string `yaml:"doi"`
	SourceType string `yaml:"source_type"`
	CiteText   string `yaml:"cite_text"`
}

// SeedAssertion declares an assertion with its features and sources.
type SeedAssertion struct {
	Disease               string        `yaml:"disease"`
	TherapyName           string        `yaml:"therapy_name"`
	TherapyType           string        `yaml:"therapy_type"`
	PredictiveImplication string        `yaml:"predictive_implication"`
	Description           string        `yaml:"description"`
	Validated             bool          `yaml:"validated"`
	SubmittedBy           string        `yaml:"submitted_by"`
	Sources               []string      `yaml:"sources"`
	Features              []SeedFeature `yaml:"features"`
}

// SeedFeature is one feature of an assertion. Attributes are keyed by
// internal attribute name.
type SeedFeature struct {
	Feature    string            `yaml:"feature"`
	Attributes map[string]string `yaml:"attributes"`
}

// SeedStats counts the rows Seed inserted.
type SeedStats struct {
	FeatureDefinitions   int `json:"feature_definitions"`
	AttributeDefinitions int `json:"attribute_definitions"`
	Sources              int `json:"sources"`
	Assertions           int `json:"assertions"`
	Features             int `json:"features"`
	Attributes           int `json:"attributes"`
}

// ParseSeed decodes a seed file. Unknown keys are errors.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &SeedFile{}, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Seed loads development data into the knowledgebase in one transaction.
// Feature definitions, attribute definitions and sources that already
// exist (by name or DOI) are reused; assertions are always added.
func (s *Store) Seed(ctx context.Context, f *SeedFile) (SeedStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedStats{}, fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	sd := &seeder{s: s, tx: tx, defs: make(map[string]*featureDef), sources: make(map[string]int64)}

	for _, fd := range f.Features {
		if err := sd.featureDefinition(ctx, fd); err != nil {
			return SeedStats{}, fmt.Errorf("seed: feature %q: %w", fd.Name, err)
		}
	}
	for _, src := range f.Sources {
		if _, err := sd.source(ctx, src); err != nil {
			return SeedStats{}, fmt.Errorf("seed: source %q: %w", src.DOI, err)
		}
	}
	for i, a := range f.Assertions {
		if err := sd.assertion(ctx, a); err != nil {
			return SeedStats{}, fmt.Errorf("seed: assertion %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SeedStats{}, fmt.Errorf("seed: commit: %w", err)
	}

	s.logger.InfoContext(ctx, "seed loaded",
		"assertions", sd.stats.Assertions,
		"features", sd.stats.Features,
		"sources", sd.stats.Sources,
	)
	return sd.stats, nil
}

type attributeDef struct {
	name string
	id   int64
}

type featureDef struct {
	id         int64
	attributes []attributeDef
}

type seeder struct {
	s       *Store
	tx      *sql.Tx
	defs    map[string]*featureDef
	sources map[string]int64
	stats   SeedStats
}

// insertID runs an INSERT ... RETURNING id.
func (sd *seeder) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := sd.tx.QueryRowContext(ctx, sd.s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// existingID looks up an id; ok is false when no row matches.
func (sd *seeder) existingID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := sd.tx.QueryRowContext(ctx, sd.s.rebind(query), args...).Scan(&id)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (sd *seeder) featureDefinition(ctx context.Context, fd SeedFeatureDefinition) error {
	if strings.TrimSpace(fd.Name) == "" {
		return fmt.Errorf("feature definition has no name")
	}
	readable := fd.ReadableName
	if readable == "" {
		readable = fd.Name
	}

	id, ok, err := sd.existingID(ctx, `SELECT id FROM feature_definitions WHERE name = ?`, fd.Name)
	if err != nil {
		return err
	}
	if !ok {
		id, err = sd.insertID(ctx, `INSERT INTO feature_definitions (name, readable_name) VALUES (?, ?)`, fd.Name, readable)
		if err != nil {
			return err
		}
		sd.stats.FeatureDefinitions++
	}

	for _, ad := range fd.Attributes {
		if strings.TrimSpace(ad.Name) == "" {
			return fmt.Errorf("attribute definition has no name")
		}
		adReadable := ad.ReadableName
		if adReadable == "" {
			adReadable = ad.Name
		}
		_, ok, err := sd.existingID(ctx,
			`SELECT id FROM attribute_definitions WHERE feature_def_id = ? AND name = ?`, id, ad.Name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := sd.insertID(ctx,
			`INSERT INTO attribute_definitions (feature_def_id, name, readable_name, type) VALUES (?, ?, ?, ?)`,
			id, ad.Name, adReadable, ad.Type); err != nil {
			return fmt.Errorf("attribute %q: %w", ad.Name, err)
		}
		sd.stats.AttributeDefinitions++
	}
	return nil
}

// feature returns the definition of a feature kind with its attributes in
// definition order.
func (sd *seeder) feature(ctx context.Context, name string) (*featureDef, error) {
	if def, ok := sd.defs[name]; ok {
		return def, nil
	}

	id, ok, err := sd.existingID(ctx, `SELECT id FROM feature_definitions WHERE name = ?`, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unknown feature %q", name)
	}

	rows, err := sd.tx.QueryContext(ctx, sd.s.rebind(
		`SELECT id, name FROM attribute_definitions WHERE feature_def_id = ? ORDER BY id ASC`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	def := &featureDef{id: id}
	for rows.Next() {
		var ad attributeDef
		if err := rows.Scan(&ad.id, &ad.name); err != nil {
			return nil, err
		}
		def.attributes = append(def.attributes, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sd.defs[name] = def
	return def, nil
}

func (sd *seeder) source(ctx context.Context, src SeedSource) (int64, error) {
	if strings.TrimSpace(src.DOI) == "" {
		return 0, fmt.Errorf("source has no doi")
	}
	if id, ok := sd.sources[src.DOI]; ok {
		return id, nil
	}

	id, ok, err := sd.existingID(ctx, `SELECT id FROM sources WHERE doi = ?`, src.DOI)
	if err != nil {
		return 0, err
	}
	if !ok {
		sourceType := src.SourceType
		if sourceType == "" {
			sourceType = "Journal"
		}
		id, err = sd.insertID(ctx,
			`INSERT INTO sources (doi, source_type, cite_text) VALUES (?, ?, ?)`,
			src.DOI, sourceType, src.CiteText)
		if err != nil {
			return 0, err
		}
		sd.stats.Sources++
	}
	sd.sources[src.DOI] = id
	return id, nil
}

func (sd *seeder) assertion(ctx context.Context, a SeedAssertion) error {
	id, err := sd.insertID(ctx, `
		INSERT INTO assertions
		(disease, therapy_name, therapy_type, predictive_implication, description, validated, submitted_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Disease, a.TherapyName, a.TherapyType, a.PredictiveImplication, a.Description, a.Validated, a.SubmittedBy)
	if err != nil {
		return err
	}
	sd.stats.Assertions++

	for _, doi := range a.Sources {
		srcID, err := sd.source(ctx, SeedSource{DOI: doi})
		if err != nil {
			return fmt.Errorf("source %q: %w", doi, err)
		}
		if _, err := sd.tx.ExecContext(ctx, sd.s.rebind(
			`INSERT INTO assertion_sources (assertion_id, source_id) VALUES (?, ?)`), id, srcID); err != nil {
			return fmt.Errorf("link source %q: %w", doi, err)
		}
	}

	for _, f := range a.Features {
		if err := sd.assertionFeature(ctx, id, f); err != nil {
			return fmt.Errorf("feature %q: %w", f.Feature, err)
		}
	}
	return nil
}

func (sd *seeder) assertionFeature(ctx context.Context, assertionID int64, f SeedFeature) error {
	def, err := sd.feature(ctx, f.Feature)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(def.attributes))
	for _, ad := range def.attributes {
		known[ad.name] = true
	}
	var unknown []string
	for name := range f.Attributes {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown attributes %s", strings.Join(unknown, ", "))
	}

	featureID, err := sd.insertID(ctx,
		`INSERT INTO features (assertion_id, feature_def_id) VALUES (?, ?)`, assertionID, def.id)
	if err != nil {
		return err
	}
	sd.stats.Features++

	for _, ad := range def.attributes {
		value, ok := f.Attributes[ad.name]
		if !ok {
			continue
		}
		if _, err := sd.tx.ExecContext(ctx, sd.s.rebind(
			`INSERT INTO feature_attributes (feature_id, attribute_def_id, value) VALUES (?, ?, ?)`),
			featureID, ad.id, value); err != nil {
			return fmt.Errorf("attribute %q: %w", ad.name, err)
		}
		sd.stats.Attributes++
	}
	return nil
}
