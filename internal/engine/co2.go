package engine

import "anoa.com/ecotrack/internal/entity"

// CO2 factors in kg saved per 10 points.
var co2Factors = map[entity.Category]float64{
	entity.CategoryTransport:   0.5,
	entity.CategoryEnergy:      0.3,
	entity.CategoryWater:       0.1,
	entity.CategoryWaste:       0.2,
	entity.CategoryGreen:       0.4,
	entity.CategoryConsumption: 0.15,
}

const (
	defaultCO2Factor = 0.1

	kgCO2PerTreeYear = 21.77
	kgCO2PerKmDriven = 0.21
	kgCO2PerKwh      = 0.5
)

type CO2Report struct {
	TotalCO2        float64 `json:"total_co2_kg"`
	TreesEquivalent float64 `json:"trees_equivalent"`
	KmNotDriven     float64 `json:"km_not_driven"`
	KwhSaved        float64 `json:"kwh_saved"`
}

// CO2Factor returns the factor for category; unknown categories fall back to 0.1.
func CO2Factor(category entity.Category) float64 {
	if f, ok := co2Factors[category.Normalize()]; ok {
		return f
	}
	return defaultCO2Factor
}

// CalculateCO2 returns kg of CO2 saved. Never negative.
func CalculateCO2(category entity.Category, points int) float64 {
	if points <= 0 {
		return 0
	}
	return float64(points) * CO2Factor(category) / 10
}

func GenerateReport(totalCO2 float64) CO2Report {
	if totalCO2 <= 0 {
		return CO2Report{}
	}
	return CO2Report{
		TotalCO2:        totalCO2,
		TreesEquivalent: totalCO2 / kgCO2PerTreeYear,
		KmNotDriven:     totalCO2 / kgCO2PerKmDriven,
		KwhSaved:        totalCO2 / kgCO2PerKwh,
	}
}

// TotalCO2 sums CalculateCO2 over the snapshot stored on each completion.
func TotalCO2(completions []entity.Completion) float64 {
	var total float64
	for _, c := range completions {
		total += CalculateCO2(c.Category, c.PointsEarned)
	}
	return total
}

// CO2ByCategory breaks the total down per normalized category.
func CO2ByCategory(completions []entity.Completion) map[entity.Category]float64 {
	out := make(map[entity.Category]float64)
	for _, c := range completions {
		if co2 := CalculateCO2(c.Category, c.PointsEarned); co2 > 0 {
			out[c.Category.Normalize()] += co2
		}
	}
	return out
}
