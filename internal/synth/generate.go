package synth

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Params controls Generate.
type Params struct {
	Patients       int       // number of distinct patients
	MaxClaims      int       // claims per patient are drawn from [1, MaxClaims]
	Start          time.Time // earliest claim date
	SpanDays       int       // claims fall in [Start, Start+SpanDays)
	ProcedureRate  float64   // probability a claim carries a procedure
	DiagnosisCodes []string  // code pool; DefaultDiagnosisCodes when empty
	ProcedureCodes []string  // code pool; DefaultProcedureCodes when empty
	Seed           uint64
}

// DefaultDiagnosisCodes is a small ICD-10-CM pool.
var DefaultDiagnosisCodes = []string{
	"E11.9", "I10", "E78.5", "J44.9", "N18.3", "I25.10", "F32.9", "Z00.00", "M54.5", "K21.9",
}

// DefaultProcedureCodes is a small CPT pool.
var DefaultProcedureCodes = []string{
	"99213", "99214", "80053", "83036", "93000", "71046",
}

// Generate returns synthetic claims ordered by patient and date. The same
// Params always produce the same claims, including patient and claim ids.
func Generate(p Params) []Claim {
	if p.MaxClaims <= 0 {
		p.MaxClaims = 1
	}
	if p.SpanDays <= 0 {
		p.SpanDays = 365
	}
	if p.Start.IsZero() {
		p.Start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	dx := p.DiagnosisCodes
	if len(dx) == 0 {
		dx = DefaultDiagnosisCodes
	}
	px := p.ProcedureCodes
	if len(px) == 0 {
		px = DefaultProcedureCodes
	}

	var key [32]byte
	for i := 0; i < 8; i++ {
		key[i] = byte(p.Seed >> (8 * i))
	}
	chacha := rand.NewChaCha8(key)
	rng := rand.New(chacha)

	start := DateOf(p.Start)
	var out []Claim
	for i := 0; i < p.Patients; i++ {
		pid := mustUUID(chacha)
		n := 1 + rng.IntN(p.MaxClaims)

		days := make([]int, n)
		for j := range days {
			days[j] = rng.IntN(p.SpanDays)
		}
		sort.Ints(days)

		for j, d := range days {
			c := Claim{
				PatientID:     pid,
				ClaimID:       fmt.Sprintf("%s-%03d", pid[:8], j),
				StatementFrom: start + int32(d),
				Diagnoses:     pickCodes(rng, dx),
			}
			if rng.Float64() < p.ProcedureRate {
				c.ProcedureCode = Ptr(px[rng.IntN(len(px))])
				c.ProcedureDate = Ptr(Time(c.StatementFrom + int32(rng.IntN(3))))
			}
			out = append(out, c)
		}
	}
	return out
}

func pickCodes(rng *rand.Rand, pool []string) []Diagnosis {
	n := 1 + rng.IntN(3)
	seen := make(map[string]bool, n)
	var codes []string
	for len(codes) < n && len(seen) < len(pool) {
		c := pool[rng.IntN(len(pool))]
		if seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	return Codes(codes...)
}

func mustUUID(r *rand.ChaCha8) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// ChaCha8.Read never fails.
		panic(err)
	}
	return id.String()
}
