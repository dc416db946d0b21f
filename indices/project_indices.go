package indices

import (
	"context"
	"encoding/json"

	"bantay/client/es"
	"bantay/domain"
	"bantay/event"
	"bantay/persistence"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
)

var ProjectIndexName = "bantay-projects"

var (
	IndexProjectFunc          = IndexProject
	SearchProjectProgressFunc = SearchProjectProgress
)

// ProjectDoc is the search-side projection of a project's progress, kept out
// of the transactional store so oversight queries never touch it.
type ProjectDoc struct {
	ID   types.ID `json:"id"`
	Code string   `json:"code"`
	Name string   `json:"name"`

	WorkflowStatus domain.WorkflowStatus `json:"workflowStatus"`

	OverallProgress  float64 `json:"overallProgress"`
	TimelineProgress float64 `json:"timelineProgress"`
	BudgetProgress   float64 `json:"budgetProgress"`
	PhysicalProgress float64 `json:"physicalProgress"`

	Timestamp types.Timestamp `json:"timestamp"`
}

type ProjectSearchQuery struct {
	Name             string                  `json:"name" form:"name"`
	WorkflowStatuses []domain.WorkflowStatus `json:"workflowStatuses" form:"workflowStatus"`
}

func IndexProject(project *domain.Project, s *session.Session) error {
	doc := ProjectDoc{
		ID:   project.ID,
		Code: project.Code,
		Name: project.Name,

		WorkflowStatus: project.WorkflowStatus,

		OverallProgress:  project.OverallProgress,
		TimelineProgress: project.TimelineProgress,
		BudgetProgress:   project.BudgetProgress,
		PhysicalProgress: project.PhysicalProgress,

		Timestamp: types.CurrentTimestamp(),
	}
	return es.IndexFunc(ProjectIndexName, project.ID, doc, s)
}

func SearchProjectProgress(q ProjectSearchQuery, s *session.Session) ([]ProjectDoc, error) {
	filters := make([]es.H, 0, 3)
	if q.Name != "" {
		filters = append(filters, es.H{"match": es.H{"name": es.H{"query": q.Name, "operator": "AND"}}})
	}
	if len(q.WorkflowStatuses) > 0 {
		filters = append(filters, es.H{"terms": es.H{"workflowStatus": q.WorkflowStatuses}})
	}
	if !s.Perms.HasGlobalViewRole() {
		visible := s.VisibleProjects()
		if len(visible) == 0 {
			return []ProjectDoc{}, nil
		}
		filters = append(filters, es.H{"terms": es.H{"id": visible}})
	}

	sorts := []es.H{{"code": es.H{"order": "asc"}}}
	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(ProjectIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	docs := make([]ProjectDoc, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := ProjectDoc{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// IndexOnTransition refreshes the project's search document after a
// committed workflow transition. Registered on the event handler chain;
// an indexing failure never affects the transition itself.
func IndexOnTransition(record *event.EventRecord) *event.EventHandleResult {
	projectId, ok := projectOfEvent(record)
	if !ok {
		return nil
	}

	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	project := domain.Project{}
	if err := db.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "indices"}
	}
	if err := IndexProjectFunc(&project, &session.Session{Context: context.Background()}); err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "indices"}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: "indices"}
}

func projectOfEvent(record *event.EventRecord) (types.ID, bool) {
	switch record.SourceType {
	case event.SourceTypeProject:
		return record.SourceId, true
	case event.SourceTypeSubmission:
		submission := domain.SubmissionRecord{}
		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		if err := db.Where(&domain.SubmissionRecord{ID: record.SourceId}).First(&submission).Error; err != nil {
			return 0, false
		}
		return submission.ProjectID, true
	}
	return 0, false
}
