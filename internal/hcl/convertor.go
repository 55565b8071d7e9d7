package hcl

import (
	"fmt"
	"math"
	"math/big"

	"github.com/vk/viewbind/internal/expr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToCtyValue converts a native Go value into its corresponding cty.Value.
// Values are normalized first, so structs become objects and every slice
// becomes a tuple; anything left over goes through gocty's implied types.
func ToCtyValue(v any) (cty.Value, error) {
	switch x := expr.Normalize(v).(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case float64:
		if math.IsNaN(x) {
			return cty.NilVal, fmt.Errorf("cannot represent NaN as a cty number")
		}
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			cv, err := ToCtyValue(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = cv
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			cv, err := ToCtyValue(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	default:
		ty, err := gocty.ImpliedType(x)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", x, err)
		}
		return gocty.ToCtyValue(x, ty)
	}
}

// FromCtyValue converts a cty.Value back into plain Go values: nil, string,
// bool, int (for whole numbers that fit), float64, []any and map[string]any.
func FromCtyValue(val cty.Value) (any, error) {
	val, _ = val.Unmark()
	if !val.IsKnown() {
		return nil, fmt.Errorf("value of type %s is not known", val.Type().FriendlyName())
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.Equals(cty.Number):
		return fromNumber(val.AsBigFloat()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, e := it.Element()
			v, err := FromCtyValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, e := it.Element()
			v, err := FromCtyValue(e)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil
	case ty.IsCapsuleType():
		return val.EncapsulatedValue(), nil
	}
	return nil, fmt.Errorf("unsupported cty type %s", ty.FriendlyName())
}

func fromNumber(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
	}
	f, _ := bf.Float64()
	return f
}
