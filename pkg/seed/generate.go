package seed

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// registry tracks values already emitted for each (table, column),
// feeding ForeignKey generators (cross-table, fully populated by
// topological order) and self-referential generators (same table,
// populated incrementally one completed row at a time).
type registry struct {
	values map[string]map[string][]any
}

func newRegistry() *registry {
	return &registry{values: map[string]map[string][]any{}}
}

func (r *registry) record(table, column string, v any) {
	if r.values[table] == nil {
		r.values[table] = map[string][]any{}
	}
	r.values[table][column] = append(r.values[table][column], v)
}

func (r *registry) get(table, column string) []any {
	return r.values[table][column]
}

// counters holds the per-table-column Sequential cursor.
type counters struct {
	next map[string]int64
}

func newCounters() *counters {
	return &counters{next: map[string]int64{}}
}

func (c *counters) take(key string, start int64) int64 {
	v, ok := c.next[key]
	if !ok {
		v = start
	}
	c.next[key] = v + 1
	return v
}

// generateValue produces one column value for one row. rowIndex is
// 0-based within the table's full (post-scaling) row count.
func generateValue(gen Generator, table, column string, rowIndex int, rng *rand.Rand, cnt *counters, reg *registry) (any, error) {
	switch gen.Kind {
	case GenSequential:
		return cnt.take(table+"."+column, gen.Start), nil

	case GenRandomInt:
		lo, hi := int64(gen.Min), int64(gen.Max)
		if hi < lo {
			return nil, fmt.Errorf("random_int: max < min for %s.%s", table, column)
		}
		return lo + rng.Int64N(hi-lo+1), nil

	case GenRandomDecimal:
		v := gen.Min + rng.Float64()*(gen.Max-gen.Min)
		return roundTo(v, gen.Precision), nil

	case GenBoolean:
		return rng.Float64() < gen.P, nil

	case GenTimestampNow:
		return time.Now(), nil

	case GenTimestampRange:
		span := gen.RangeEnd.Sub(gen.RangeStart)
		if span <= 0 {
			return gen.RangeStart, nil
		}
		offset := time.Duration(rng.Int64N(int64(span)))
		return gen.RangeStart.Add(offset), nil

	case GenTimestampRelative:
		return time.Now().Add(time.Duration(gen.OffsetSeconds) * time.Second), nil

	case GenEmail:
		first := pick(rng, firstNames)
		last := pick(rng, lastNames)
		n := rng.IntN(10000)
		domain := pick(rng, emailDomains)
		return fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), n, domain), nil

	case GenPhone:
		area := pick(rng, phoneAreaCodes)
		return fmt.Sprintf("%s-%03d-%04d", area, rng.IntN(1000), rng.IntN(10000)), nil

	case GenName:
		switch gen.NameForm {
		case NameFirst:
			return pick(rng, firstNames), nil
		case NameLast:
			return pick(rng, lastNames), nil
		default:
			return pick(rng, firstNames) + " " + pick(rng, lastNames), nil
		}

	case GenAddress:
		return fmt.Sprintf("%d %s, %s, %s %05d", 1+rng.IntN(9998), pick(rng, streetNames), pick(rng, cities), pick(rng, states), 10000+rng.IntN(89999)), nil

	case GenTemplate:
		return expandTemplate(gen.Template, table, column, rowIndex, rng, cnt), nil

	case GenEnum:
		if len(gen.EnumValues) == 0 {
			return nil, fmt.Errorf("enum: no values for %s.%s", table, column)
		}
		return gen.EnumValues[rng.IntN(len(gen.EnumValues))], nil

	case GenForeignKey:
		return pickForeignKey(gen, table, column, rowIndex, rng, reg)

	default:
		return nil, fmt.Errorf("unknown generator kind %q for %s.%s", gen.Kind, table, column)
	}
}

func pickForeignKey(gen Generator, table, column string, rowIndex int, rng *rand.Rand, reg *registry) (any, error) {
	if gen.RefTable == table {
		// Self-referential: pick only from rows already fully committed
		// to the registry (see seed.go), leaving an implicit NULL prefix
		// of exactly the rows generated before any prior row completed.
		pool := reg.get(table, gen.RefColumn)
		if len(pool) == 0 {
			return nil, nil
		}
		return pool[rng.IntN(len(pool))], nil
	}

	pool := reg.get(gen.RefTable, gen.RefColumn)
	if len(pool) == 0 {
		return nil, fmt.Errorf("foreign_key: no rows emitted yet for %s.%s (check table ordering)", gen.RefTable, gen.RefColumn)
	}
	return pool[rng.IntN(len(pool))], nil
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.IntN(len(list))]
}

func roundTo(v float64, precision int) float64 {
	mult := 1.0
	for i := 0; i < precision; i++ {
		mult *= 10
	}
	return float64(int64(v*mult+0.5)) / mult
}

// expandTemplate substitutes {random_int:min:max} and {sequential} in a
// format string, per §3 Template generator.
func expandTemplate(tpl, table, column string, rowIndex int, rng *rand.Rand, cnt *counters) string {
	var out strings.Builder
	i := 0
	for i < len(tpl) {
		if tpl[i] == '{' {
			end := strings.IndexByte(tpl[i:], '}')
			if end == -1 {
				out.WriteString(tpl[i:])
				break
			}
			token := tpl[i+1 : i+end]
			out.WriteString(expandToken(token, table, column, rng, cnt))
			i += end + 1
			continue
		}
		out.WriteByte(tpl[i])
		i++
	}
	return out.String()
}

func expandToken(token, table, column string, rng *rand.Rand, cnt *counters) string {
	if token == "sequential" {
		return strconv.FormatInt(cnt.take(table+"."+column+".template", 0), 10)
	}
	parts := strings.Split(token, ":")
	if len(parts) == 3 && parts[0] == "random_int" {
		lo, err1 := strconv.ParseInt(parts[1], 10, 64)
		hi, err2 := strconv.ParseInt(parts[2], 10, 64)
		if err1 == nil && err2 == nil && hi >= lo {
			return strconv.FormatInt(lo+rng.Int64N(hi-lo+1), 10)
		}
	}
	return "{" + token + "}"
}
