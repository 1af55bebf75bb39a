package types

// MaxLocatorHashes bounds a locator's length; a longer locator is a
// malformed-message offense (spec.md §4.1, §8 "Locator bound").
const MaxLocatorHashes = 101

// MaxHeadersPerReply caps how many headers a single GetHeaders reply may
// carry (spec.md §4.1, §6).
const MaxHeadersPerReply = 2000

// BlockLocator is an ordered list of block hashes from an anchor point
// walking back with exponentially increasing step (1,1,2,4,8,...), plus
// an optional hash-stop fork hint (spec.md §4.1, §6).
type BlockLocator struct {
	Hashes   []Hash
	HashStop Hash
}

func (l *BlockLocator) Oversized() bool {
	return len(l.Hashes) > MaxLocatorHashes
}

// BuildLocator walks heightGetter backwards from tip with exponentially
// increasing step, matching spec.md §4.1's "1,1,2,4,8,..." sequence, and
// always includes the genesis hash as the final entry.
func BuildLocator(tipNumber uint64, hashAt func(number uint64) (Hash, bool)) []Hash {
	var hashes []Hash
	step := uint64(1)
	number := tipNumber
	for {
		h, ok := hashAt(number)
		if !ok {
			break
		}
		hashes = append(hashes, h)
		if number == 0 {
			break
		}
		if len(hashes) >= 3 {
			step *= 2
		}
		if number < step {
			number = 0
		} else {
			number -= step
		}
		if len(hashes) >= MaxLocatorHashes {
			break
		}
	}
	return hashes
}
