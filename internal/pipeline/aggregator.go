package pipeline

import "github.com/geomatic-pipeline/pipeline/internal/domain"

// AggregateDatasets implements the dataset aggregator (C8): it collects
// the distinct GTFS datasets referenced by the stops-ref map (which holds
// every stop a per-location stop link names), deduplicated by
// resource_datagouv_id. Stop
// refs without that identifier cannot be downloaded and are skipped.
func AggregateDatasets(stopsRef map[string]domain.StopRef) []domain.GTFSDataset {
	seen := make(map[string]bool)
	var datasets []domain.GTFSDataset

	for _, ref := range stopsRef {
		if ref.ResourceDatagouvID == "" {
			continue
		}
		if seen[ref.ResourceDatagouvID] {
			continue
		}
		seen[ref.ResourceDatagouvID] = true
		datasets = append(datasets, domain.GTFSDataset{
			DatasetID:          ref.DatasetID,
			ResourceID:         ref.ResourceID,
			DatasetDatagouvID:  ref.DatasetDatagouvID,
			ResourceDatagouvID: ref.ResourceDatagouvID,
			DatasetCustomTitle: ref.DatasetSourceName,
		})
	}
	return datasets
}
