package models

import (
	"arho/internal/plan/fingerprint"
	id "arho/pkg/domain"
)

// Layer names the feature table a plan object lives in. It doubles as the target
// kind of the group association.
type Layer string

const (
	LayerLand       Layer = "land_use_area"
	LayerOther      Layer = "other_area"
	LayerLine       Layer = "line"
	LayerPoint      Layer = "land_use_point"
	LayerOtherPoint Layer = "other_point"
	// LayerPlan is the target kind for general regulation groups linked to a plan.
	LayerPlan Layer = "plan"
)

// FeatureLayers lists the layers that hold plan objects.
var FeatureLayers = []Layer{LayerLand, LayerOther, LayerLine, LayerPoint, LayerOtherPoint}

// IsFeature reports whether l holds plan objects.
func (l Layer) IsFeature() bool {
	for _, f := range FeatureLayers {
		if f == l {
			return true
		}
	}
	return false
}

// PlanObject is a spatial feature of a plan carrying regulation groups.
type PlanObject struct {
	State
	Geometry          Geometry           `json:"geom,omitempty"`
	UndergroundTypeID id.ID              `json:"type_of_underground_id,omitempty"`
	Layer             Layer              `json:"layer_name,omitempty"`
	Name              string             `json:"name,omitempty"`
	Description       string             `json:"description,omitempty"`
	RegulationGroups  []*RegulationGroup `json:"regulation_groups"`
	PlanID            id.ID              `json:"plan_id,omitempty"`
}

// NewPlanObject returns a fresh, unsaved feature on layer.
func NewPlanObject(layer Layer, geom Geometry) *PlanObject {
	o := &PlanObject{State: Fresh(), Layer: layer, Geometry: geom}
	o.Normalize()
	return o
}

func (o *PlanObject) Fingerprint(w *fingerprint.Writer) {
	if o == nil {
		return
	}
	w.String("geometry", string(o.Geometry))
	w.String("underground_type_id", string(o.UndergroundTypeID))
	w.String("layer", string(o.Layer))
	w.String("name", o.Name)
	w.String("description", o.Description)
}
