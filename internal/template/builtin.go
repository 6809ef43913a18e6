package template

import "curriculum-engine/internal/domain"

// Workflow kinds shipped with the engine.
const (
	KindCurriculumAnalysis = "curriculum_analysis"
	KindPeerComparison     = "peer_comparison"
	KindGapAnalysis        = "gap_analysis"
)

// Worker types referenced by the built-in templates.
const (
	WorkerDocumentParser   = "document_parser"
	WorkerCourseExtractor  = "course_extractor"
	WorkerStandardsSearch  = "standards_search"
	WorkerCoverageAnalyzer = "coverage_analyzer"
	WorkerPeerComparator   = "peer_comparator"
	WorkerGapDetector      = "gap_detector"
	WorkerReportGenerator  = "report_generator"
)

// NewDefaultRegistry returns a registry loaded with the built-in curriculum
// workflows. Registration of the built-ins cannot fail; a failure here means
// a template was edited into an invalid shape, so panic at startup.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, tpl := range builtins() {
		if err := r.Register(tpl); err != nil {
			panic("builtin template invalid: " + err.Error())
		}
	}
	return r
}

func builtins() []*domain.WorkflowTemplate {
	return []*domain.WorkflowTemplate{
		{
			Kind: KindCurriculumAnalysis,
			Steps: []domain.StepTemplate{
				{ID: "parse_documents", Name: "Parse curriculum documents", WorkerType: WorkerDocumentParser, EstimatedDurationMs: 20000},
				{ID: "extract_courses", Name: "Extract course catalog", WorkerType: WorkerCourseExtractor, DependsOn: []string{"parse_documents"}, EstimatedDurationMs: 15000},
				{ID: "search_standards", Name: "Search accreditation standards", WorkerType: WorkerStandardsSearch, DependsOn: []string{"extract_courses"}, EstimatedDurationMs: 30000},
				{ID: "analyze_coverage", Name: "Analyze topic coverage", WorkerType: WorkerCoverageAnalyzer, DependsOn: []string{"extract_courses"}, EstimatedDurationMs: 25000},
				{ID: "generate_report", Name: "Generate analysis report", WorkerType: WorkerReportGenerator, DependsOn: []string{"search_standards", "analyze_coverage"}, EstimatedDurationMs: 10000},
			},
		},
		{
			Kind: KindPeerComparison,
			Steps: []domain.StepTemplate{
				{ID: "parse_documents", Name: "Parse curriculum documents", WorkerType: WorkerDocumentParser, EstimatedDurationMs: 20000},
				{ID: "extract_courses", Name: "Extract course catalog", WorkerType: WorkerCourseExtractor, DependsOn: []string{"parse_documents"}, EstimatedDurationMs: 15000},
				{ID: "fetch_peer_programs", Name: "Fetch peer program catalogs", WorkerType: WorkerStandardsSearch, EstimatedDurationMs: 35000},
				{ID: "compare_programs", Name: "Compare against peer programs", WorkerType: WorkerPeerComparator, DependsOn: []string{"extract_courses", "fetch_peer_programs"}, EstimatedDurationMs: 25000},
				{ID: "generate_report", Name: "Generate comparison report", WorkerType: WorkerReportGenerator, DependsOn: []string{"compare_programs"}, EstimatedDurationMs: 10000},
			},
		},
		{
			Kind: KindGapAnalysis,
			Steps: []domain.StepTemplate{
				{ID: "parse_documents", Name: "Parse curriculum documents", WorkerType: WorkerDocumentParser, EstimatedDurationMs: 20000},
				{ID: "extract_courses", Name: "Extract course catalog", WorkerType: WorkerCourseExtractor, DependsOn: []string{"parse_documents"}, EstimatedDurationMs: 15000},
				{ID: "detect_gaps", Name: "Detect curriculum gaps", WorkerType: WorkerGapDetector, DependsOn: []string{"extract_courses"}, EstimatedDurationMs: 30000},
				{ID: "generate_report", Name: "Generate gap report", WorkerType: WorkerReportGenerator, DependsOn: []string{"detect_gaps"}, EstimatedDurationMs: 10000},
			},
		},
	}
}
