package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wonny/loanqa/internal/dataset"
)

// ErrUnknownKind is wrapped by validation errors for unsupported predicate kinds
var ErrUnknownKind = errors.New("unknown rule kind")

// Dataset names used by the default rule set
const (
	DatasetOrig = dataset.OrigName
	DatasetPerf = dataset.PerfName
)

// Set maps a dataset name to its ordered rules
type Set map[string][]Rule

// File is the on-disk layout of a rule set
type File struct {
	Datasets Set `yaml:"datasets"`
}

// ValidationError 규칙 파일 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Names returns the dataset names in sorted order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of rules
func (s Set) Count() int {
	n := 0
	for _, rs := range s {
		n += len(rs)
	}
	return n
}

// Load reads a YAML rule file
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule document
func Parse(data []byte) (Set, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rule file: %w", err)
	}

	if f.Datasets == nil {
		f.Datasets = Set{}
	}
	if err := Validate(f.Datasets); err != nil {
		return nil, err
	}
	return f.Datasets, nil
}

// Marshal encodes a rule set in the Load format
func Marshal(s Set) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Datasets: s}); err != nil {
		return nil, fmt.Errorf("encode rule file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode rule file: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks every rule descriptor.
// An empty set is valid; accuracy is then undefined (NaN).
func Validate(s Set) error {
	for _, name := range s.Names() {
		if name == "" {
			return ValidationError{"datasets", "dataset name must not be empty"}
		}
		for i, r := range s[name] {
			field := fmt.Sprintf("datasets.%s[%d]", name, i)
			if err := validateRule(field, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRule(field string, r Rule) error {
	if r.Column == "" {
		return ValidationError{field + ".column", "required"}
	}

	switch r.Kind {
	case KindRange:
		if r.Min == nil && r.Max == nil {
			return ValidationError{field, "range rule needs min or max"}
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return ValidationError{field, "min must be <= max"}
		}
	case KindInSet:
		if len(r.Values) == 0 {
			return ValidationError{field + ".values", "in_set rule needs at least one value"}
		}
	case KindNumeric, KindNotNull:
	default:
		return ValidationError{field + ".kind", fmt.Sprintf("%v: %q", ErrUnknownKind, r.Kind)}
	}

	if r.Kind != KindRange && (r.Min != nil || r.Max != nil || r.ExclusiveMin || r.ExclusiveMax) {
		return ValidationError{field, "bounds are only valid on range rules"}
	}
	return nil
}

// ZeroBalanceCodes lists the termination codes accepted by the default rule set
var ZeroBalanceCodes = []string{"01", "02", "03", "06", "09", "15", "16", "96"}

// Default returns the reference rule set for the Freddie Mac
// origination and servicing files
func Default() Set {
	return Set{
		DatasetPerf: {
			{Column: "CurrentInterestRate", Kind: KindRange, Min: Float(0), ExclusiveMin: true, Description: "interest rate must be positive"},
			{Column: "CurrentActualUPB", Kind: KindRange, Min: Float(0), Description: "UPB must not be negative"},
			{Column: "EstimatedLTV", Kind: KindRange, Min: Float(0), Description: "LTV must not be negative"},
			{Column: "ZeroBalanceCode", Kind: KindInSet, Values: ZeroBalanceCodes, AllowNotApplicable: true, Description: "known zero balance code"},
			{Column: "CurrentInterestRate", Kind: KindNumeric},
			{Column: "CurrentActualUPB", Kind: KindNumeric},
			{Column: "EstimatedLTV", Kind: KindNumeric},
		},
		DatasetOrig: {
			{Column: "UPB", Kind: KindRange, Min: Float(0), Description: "UPB must not be negative"},
			{Column: "UPB", Kind: KindNumeric},
			{Column: "PPM_Flag", Kind: KindInSet, Values: []string{"0", "1"}},
			{Column: "InterestOnlyFlag", Kind: KindInSet, Values: []string{"0", "1"}},
		},
	}
}
