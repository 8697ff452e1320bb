package agent

import (
	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/BranchCode/FlowPilot/internal/util"
)

// fillDocumentIDs assigns generated IDs to structure nodes and data entries
// the model returned without one, so every element is individually addressable.
func fillDocumentIDs(doc *models.WorkflowDocument) {
	for i := range doc.Structure {
		if doc.Structure[i].ID == "" {
			doc.Structure[i].ID = util.GenerateNodeID()
		}
	}
	for i := range doc.Data {
		if doc.Data[i].ID == "" {
			doc.Data[i].ID = util.GenerateEntryID()
		}
	}
}
