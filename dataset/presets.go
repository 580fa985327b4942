package dataset

import (
	"math/rand/v2"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Column names of the preset datasets.
const (
	HeartDisease = "heart_disease"
	Price        = "price"
	Approved     = "approved"
)

// PatientRisk generates the patient risk dataset: six features and a binary
// heart_disease label set when at least two risk factors hold.
func PatientRisk(n int, seed uint64) (*Frame, error) {
	return Generator{
		Seed: seed,
		Rows: n,
		Columns: []ColumnSpec{
			{Name: "age", Dist: UniformInt{Low: 25, High: 80}},
			{Name: "bmi", Dist: Normal{Mean: 27, StdDev: 5}},
			{Name: "blood_pressure", Dist: Normal{Mean: 130, StdDev: 20}},
			{Name: "cholesterol", Dist: Normal{Mean: 210, StdDev: 40}},
			{Name: "smoker", Dist: Choice{Values: []string{"no", "yes"}}},
			{Name: "exercise_hours", Dist: UniformInt{Low: 0, High: 10}},
		},
		Labels: []RiskRule{{
			Name: HeartDisease,
			Factors: []Threshold{
				{Column: "age", Op: OpGT, Value: 55},
				{Column: "bmi", Op: OpGT, Value: 30},
				{Column: "blood_pressure", Op: OpGT, Value: 140},
				{Column: "cholesterol", Op: OpGT, Value: 240},
				{Column: "smoker", Op: OpEq, Label: "yes"},
				{Column: "exercise_hours", Op: OpLT, Value: 2},
			},
			Cutoff: 2,
		}},
	}.Generate()
}

// Housing generates the housing dataset: seven features (two pure noise) and
// a linear price target with Gaussian noise.
func Housing(n int, seed uint64) (*Frame, error) {
	return Generator{
		Seed: seed,
		Rows: n,
		Columns: []ColumnSpec{
			{Name: "sqft", Dist: Normal{Mean: 1800, StdDev: 500}},
			{Name: "bedrooms", Dist: UniformInt{Low: 1, High: 5}},
			{Name: "bathrooms", Dist: UniformInt{Low: 1, High: 3}},
			{Name: "age_years", Dist: UniformInt{Low: 0, High: 50}},
			{Name: "distance_km", Dist: Normal{Mean: 10, StdDev: 4}},
			{Name: "noise_a", Dist: Normal{Mean: 0, StdDev: 1}},
			{Name: "noise_b", Dist: Normal{Mean: 0, StdDev: 1}},
		},
		Targets: []LinearTarget{{
			Name:         Price,
			Intercept:    50000,
			Columns:      []string{"sqft", "bedrooms", "bathrooms", "age_years", "distance_km"},
			Coefficients: []float64{150, 10000, 8000, -1000, -3000},
			NoiseStd:     20000,
		}},
	}.Generate()
}

// Applicants generates the loan applicant dataset: six features and a binary
// approved label set when at least two of three criteria hold.
func Applicants(n int, seed uint64) (*Frame, error) {
	return Generator{
		Seed: seed,
		Rows: n,
		Columns: []ColumnSpec{
			{Name: "age", Dist: UniformInt{Low: 18, High: 70}},
			{Name: "income", Dist: Normal{Mean: 55000, StdDev: 15000}},
			{Name: "years_employed", Dist: UniformInt{Low: 0, High: 40}},
			{Name: "credit_score", Dist: Normal{Mean: 680, StdDev: 60}},
			{Name: "education", Dist: Choice{Values: []string{"high_school", "bachelor", "master", "phd"}}},
			{Name: "loan_amount", Dist: Normal{Mean: 20000, StdDev: 8000}},
		},
		Labels: []RiskRule{{
			Name: Approved,
			Factors: []Threshold{
				{Column: "credit_score", Op: OpGT, Value: 700},
				{Column: "income", Op: OpGT, Value: 60000},
				{Column: "years_employed", Op: OpGT, Value: 5},
			},
			Cutoff: 2,
		}},
	}.Generate()
}

// Preset looks up a preset generator by name: "patients", "housing" or "applicants".
func Preset(name string) (func(n int, seed uint64) (*Frame, error), error) {
	switch name {
	case "patients", "patient_risk":
		return PatientRisk, nil
	case "housing":
		return Housing, nil
	case "applicants":
		return Applicants, nil
	default:
		return nil, mlerrors.NewValidationError("preset", "unknown dataset preset", name)
	}
}

// SampleRows draws count distinct row indices from [0, n) using a PCG source
// seeded with seed. The result keeps the permutation order.
func SampleRows(n, count int, seed uint64) ([]int, error) {
	if count < 0 || count > n {
		return nil, mlerrors.NewValidationError("count", "must be within [0, rows]", count)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	return rng.Perm(n)[:count], nil
}
