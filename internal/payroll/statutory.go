package payroll

// Statutory contribution rates and brackets for Malaysian payroll.
// Record creation happens upstream; this calculator exists for tooling that
// drafts deduction lists and for realistic test fixtures.

const (
	epfEmployeeBasisPoints = 1100 // 11%
	epfEmployerBasisPoints = 1300 // 13%
	eisBasisPoints         = 20   // 0.2% each side
)

// socsoBracket holds fixed contributions for a gross-pay band. Amounts are
// minor units. The table is the simplified schedule; the statutory full
// table collapses to the same values at these boundaries.
type socsoBracket struct {
	max      Amount
	employee Amount
	employer Amount
}

var socsoTable = []socsoBracket{
	{max: 3000, employee: 10, employer: 40},
	{max: 5000, employee: 15, employer: 60},
	{max: 7000, employee: 20, employer: 80},
	{max: 10000, employee: 30, employer: 120},
	{max: 14000, employee: 40, employer: 160},
	{max: 20000, employee: 60, employer: 240},
	{max: 30000, employee: 85, employer: 340},
	{max: 40000, employee: 115, employer: 460},
	{max: 50000, employee: 145, employer: 580},
	{max: 60000, employee: 175, employer: 700},
	{max: 70000, employee: 205, employer: 820},
	{max: 80000, employee: 235, employer: 940},
	{max: 90000, employee: 265, employer: 1060},
	{max: 100000, employee: 295, employer: 1180},
	{max: 110000, employee: 325, employer: 1300},
	{max: 120000, employee: 355, employer: 1420},
	{max: 130000, employee: 385, employer: 1540},
	{max: 140000, employee: 415, employer: 1660},
	{max: 150000, employee: 445, employer: 1780},
	{max: 160000, employee: 475, employer: 1900},
	{max: 170000, employee: 505, employer: 2020},
	{max: 180000, employee: 535, employer: 2140},
	{max: 190000, employee: 565, employer: 2260},
	{max: 200000, employee: 595, employer: 2380},
	{max: 210000, employee: 625, employer: 2500},
	{max: 220000, employee: 655, employer: 2620},
	{max: 230000, employee: 685, employer: 2740},
	{max: 240000, employee: 715, employer: 2860},
	{max: 250000, employee: 745, employer: 2980},
	{max: 260000, employee: 775, employer: 3100},
	{max: 270000, employee: 805, employer: 3220},
	{max: 280000, employee: 835, employer: 3340},
	{max: 290000, employee: 865, employer: 3460},
	{max: 300000, employee: 895, employer: 3580},
	{max: 310000, employee: 925, employer: 3700},
	{max: 320000, employee: 955, employer: 3820},
	{max: 330000, employee: 985, employer: 3940},
	{max: 340000, employee: 1015, employer: 4060},
	{max: 350000, employee: 1045, employer: 4180},
	{max: 360000, employee: 1075, employer: 4300},
	{max: 370000, employee: 1105, employer: 4420},
	{max: 380000, employee: 1135, employer: 4540},
	{max: 390000, employee: 1165, employer: 4660},
	{max: 400000, employee: 1195, employer: 4780},
}

// Contributions above the last bracket are capped.
var socsoCeiling = socsoBracket{employee: 1975, employer: 7900}

func basisPointsOf(a Amount, bp int64) Amount {
	v := int64(a)*bp + 5000 // round half up
	return Amount(v / 10000)
}

func socsoFor(gross Amount) socsoBracket {
	if gross <= 0 {
		return socsoBracket{}
	}
	for _, b := range socsoTable {
		if gross <= b.max {
			return b
		}
	}
	return socsoCeiling
}

// StatutoryDeductions derives the mandatory EPF, SOCSO and EIS lines for a
// gross monthly pay, split by side.
func StatutoryDeductions(gross Amount) (employer, employee []Deduction) {
	employee = append(employee, Deduction{
		ID: "epf_employee", Name: "EPF",
		Amount: basisPointsOf(gross, epfEmployeeBasisPoints),
		Kind:   DeductionEmployee, Mandatory: true,
	})
	employer = append(employer, Deduction{
		ID: "epf_employer", Name: "EPF",
		Amount: basisPointsOf(gross, epfEmployerBasisPoints),
		Kind:   DeductionEmployer, Mandatory: true,
	})

	socso := socsoFor(gross)
	if socso.employee > 0 {
		employee = append(employee, Deduction{
			ID: "socso_employee", Name: "SOCSO",
			Amount: socso.employee, Kind: DeductionEmployee, Mandatory: true,
		})
	}
	if socso.employer > 0 {
		employer = append(employer, Deduction{
			ID: "socso_employer", Name: "SOCSO",
			Amount: socso.employer, Kind: DeductionEmployer, Mandatory: true,
		})
	}

	eis := basisPointsOf(gross, eisBasisPoints)
	employee = append(employee, Deduction{
		ID: "eis_employee", Name: "EIS",
		Amount: eis, Kind: DeductionEmployee, Mandatory: true,
	})
	employer = append(employer, Deduction{
		ID: "eis_employer", Name: "EIS",
		Amount: eis, Kind: DeductionEmployer, Mandatory: true,
	})
	return employer, employee
}
