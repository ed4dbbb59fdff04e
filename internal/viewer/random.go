package viewer

// maxRandomDraws bounds rejection sampling. With two or more entries the
// chance of exhausting it is at most 2^-100.
const maxRandomDraws = 100

// PickRandom returns a uniformly random entry of list that differs from
// current. A single-entry list returns that entry even if it is current.
// intn must behave like rand.IntN. ok is false only for an empty list.
func PickRandom(list []string, current string, intn func(int) int) (pick string, ok bool) {
	switch len(list) {
	case 0:
		return "", false
	case 1:
		return list[0], true
	}
	for range maxRandomDraws {
		pick = list[intn(len(list))]
		if pick != current {
			return pick, true
		}
	}
	return pick, true
}
