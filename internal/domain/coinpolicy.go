package domain

// CoinEra maps a range of years to the coin whose price history applies.
// Eras are ordered by FromYear ascending; a year belongs to the last era
// whose FromYear it reaches. The 2020 breakpoint reflects the Steem/Hive
// chain split: activity before 2020 is priced against steem, activity from
// 2020 on against hive. The cutover is hard, never a blend of both coins.
type CoinEra struct {
	FromYear int
	Coin     Coin
}

// coinEras is the single source of truth for coin selection. Extending the
// policy means appending an era here, not editing conditionals.
var coinEras = []CoinEra{
	{FromYear: 0, Coin: CoinSteem},
	{FromYear: 2020, Coin: CoinHive},
}

// CoinForYear returns the coin whose daily closes price the given year.
func CoinForYear(year int) Coin {
	coin := coinEras[0].Coin
	for _, era := range coinEras {
		if year >= era.FromYear {
			coin = era.Coin
		}
	}
	return coin
}
