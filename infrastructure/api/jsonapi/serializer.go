package jsonapi

import (
	"strconv"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/toc"
	"github.com/bibliotheca/gateway/domain/upload"
)

// ProjectAttributes represents project attributes in JSON:API format.
type ProjectAttributes struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	AccessLimited bool   `json:"access_limited"`
}

// ChapterData is one node of a serialized chapter tree.
type ChapterData struct {
	Title    string        `json:"title"`
	URL      string        `json:"url,omitempty"`
	Key      string        `json:"key,omitempty"`
	Children []ChapterData `json:"children"`
}

// TableOfContentsAttributes represents a chapter tree in JSON:API format.
type TableOfContentsAttributes struct {
	ProjectID string        `json:"project_id"`
	Branch    string        `json:"branch"`
	Count     int           `json:"count"`
	Chapters  []ChapterData `json:"chapters"`
}

// UploadAttributes represents an upload job in JSON:API format.
type UploadAttributes struct {
	ProjectID  string   `json:"project_id"`
	Branch     string   `json:"branch"`
	Status     string   `json:"status"`
	FailedStep string   `json:"failed_step,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	CreatedAt  DateTime `json:"created_at"`
	UpdatedAt  DateTime `json:"updated_at"`
}

// Serializer converts domain objects to JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// ProjectResource converts a project to a JSON:API resource.
func (s *Serializer) ProjectResource(p project.Project) *Resource {
	return NewResource("project", p.ID(), &ProjectAttributes{
		Name:          p.Name(),
		Description:   p.Description(),
		AccessLimited: p.AccessLimited(),
	})
}

// TableOfContentsResource converts a chapter tree to a JSON:API resource.
func (s *Serializer) TableOfContentsResource(projectID, branch string, chapters []toc.Chapter) *Resource {
	return NewResource("table_of_contents", projectID+"/"+branch, &TableOfContentsAttributes{
		ProjectID: projectID,
		Branch:    branch,
		Count:     toc.Count(chapters),
		Chapters:  ChaptersData(chapters),
	})
}

// ChaptersData converts a chapter tree, keeping sibling order.
func ChaptersData(chapters []toc.Chapter) []ChapterData {
	out := make([]ChapterData, len(chapters))
	for i, c := range chapters {
		out[i] = ChapterData{
			Title:    c.Title(),
			URL:      c.URL(),
			Children: ChaptersData(c.Children()),
		}
		if c.HasDocument() {
			out[i].Key = document.StorageKey(c.URL())
		}
	}
	return out
}

// UploadResource converts an upload job to a JSON:API resource.
func (s *Serializer) UploadResource(job upload.Job) *Resource {
	return NewResource("upload", strconv.FormatInt(job.ID(), 10), &UploadAttributes{
		ProjectID:  job.ProjectID(),
		Branch:     job.Branch(),
		Status:     string(job.Status()),
		FailedStep: string(job.FailedStep()),
		Reason:     job.Reason(),
		CreatedAt:  DateTime(job.CreatedAt()),
		UpdatedAt:  DateTime(job.UpdatedAt()),
	})
}

// UploadResources converts multiple upload jobs to JSON:API resources.
func (s *Serializer) UploadResources(jobs []upload.Job) []*Resource {
	resources := make([]*Resource, len(jobs))
	for i, job := range jobs {
		resources[i] = s.UploadResource(job)
	}
	return resources
}
