package reporter

const (
	defaultReportTemplateName = "search_report.html.tmpl"
	defaultReportTitle        = "Username Search Report"

	DirPermissions  = 0755
	FilePermissions = 0644
)
