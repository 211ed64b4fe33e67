package gasprice

import (
	"encoding/json"
	"fmt"
)

// DecodeFeeEstimateSet decodes an estimates object. instant, fast, eco and baseFee
// are required; ethPrice is kept only when present and truthy.
func DecodeFeeEstimateSet(raw json.RawMessage) (FeeEstimateSet, error) {
	return decodeFeeEstimateSet(raw, "", true)
}

// DecodeHistory decodes a list of history samples. The first malformed sample
// fails the whole call. Historical samples never carry an ETH price.
func DecodeHistory(raw json.RawMessage) ([]HistoryRecord, error) {
	items, err := decodeArray(raw, "")
	if err != nil {
		return nil, err
	}

	records := make([]HistoryRecord, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("[%d]", i)
		obj, err := decodeObject(item, path)
		if err != nil {
			return nil, err
		}
		timestamp, err := obj.int64("timestamp", path)
		if err != nil {
			return nil, err
		}
		estimates, err := decodeFeeEstimateSet(obj["estimates"], joinPath(path, "estimates"), false)
		if err != nil {
			return nil, err
		}
		records = append(records, HistoryRecord{Timestamp: timestamp, Estimates: estimates})
	}
	return records, nil
}

// DecodePoolAnalysis decodes a transaction pool analysis. A category shows up in a
// bucket's breakdown only when the payload has the key with a truthy value, so an
// explicit zero reads the same as no data.
func DecodePoolAnalysis(raw json.RawMessage) (PoolAnalysis, error) {
	obj, err := decodeObject(raw, "")
	if err != nil {
		return PoolAnalysis{}, err
	}

	var analysis PoolAnalysis
	if analysis.BaseFee, err = obj.decimal("baseFee", ""); err != nil {
		return PoolAnalysis{}, err
	}
	if analysis.StepSizeGas, err = obj.uint64("stepSizeGas", ""); err != nil {
		return PoolAnalysis{}, err
	}
	if analysis.DesiredBlockGas, err = obj.uint64("desiredBlockGas", ""); err != nil {
		return PoolAnalysis{}, err
	}

	items, err := decodeArray(obj["data"], "data")
	if err != nil {
		return PoolAnalysis{}, err
	}
	analysis.Buckets = make([]PoolAnalysisBucket, 0, len(items))
	for i, item := range items {
		bucket, err := decodeBucket(item, fmt.Sprintf("data[%d]", i))
		if err != nil {
			return PoolAnalysis{}, err
		}
		analysis.Buckets = append(analysis.Buckets, bucket)
	}
	return analysis, nil
}

func decodeBucket(raw json.RawMessage, path string) (PoolAnalysisBucket, error) {
	obj, err := decodeObject(raw, path)
	if err != nil {
		return PoolAnalysisBucket{}, err
	}

	var bucket PoolAnalysisBucket
	if bucket.TotalFees, err = obj.decimal("totalFees", path); err != nil {
		return PoolAnalysisBucket{}, err
	}
	if bucket.GasUsed, err = obj.uint64("gasUsed", path); err != nil {
		return PoolAnalysisBucket{}, err
	}

	categories, err := obj.object("analysis", path)
	if err != nil {
		return PoolAnalysisBucket{}, err
	}
	bucket.Breakdown = make(CategoryBreakdown, len(Categories))
	for _, category := range Categories {
		share, err := categories.optionalDecimal(string(category), joinPath(path, "analysis"))
		if err != nil {
			return PoolAnalysisBucket{}, err
		}
		if share != nil {
			bucket.Breakdown[category] = *share
		}
	}
	return bucket, nil
}

func decodeFeeEstimateSet(raw json.RawMessage, path string, withEthPrice bool) (FeeEstimateSet, error) {
	obj, err := decodeObject(raw, path)
	if err != nil {
		return FeeEstimateSet{}, err
	}

	var set FeeEstimateSet
	if set.Instant, err = decodeFeeEstimate(obj, "instant", path); err != nil {
		return FeeEstimateSet{}, err
	}
	if set.Fast, err = decodeFeeEstimate(obj, "fast", path); err != nil {
		return FeeEstimateSet{}, err
	}
	if set.Eco, err = decodeFeeEstimate(obj, "eco", path); err != nil {
		return FeeEstimateSet{}, err
	}
	if set.BaseFee, err = obj.decimal("baseFee", path); err != nil {
		return FeeEstimateSet{}, err
	}
	if withEthPrice {
		if set.EthPrice, err = obj.optionalDecimal("ethPrice", path); err != nil {
			return FeeEstimateSet{}, err
		}
	}
	return set, nil
}

func decodeFeeEstimate(parent object, key, path string) (FeeEstimate, error) {
	obj, err := parent.object(key, path)
	if err != nil {
		return FeeEstimate{}, err
	}
	path = joinPath(path, key)

	var estimate FeeEstimate
	if estimate.FeeCap, err = obj.decimal("feeCap", path); err != nil {
		return FeeEstimate{}, err
	}
	if estimate.MaxPriorityFee, err = obj.decimal("maxPriorityFee", path); err != nil {
		return FeeEstimate{}, err
	}
	return estimate, nil
}
