package indicators

// DropIntakeSession exposes the intake policy to the external test package.
var DropIntakeSession = dropIntakeSession

// SortSessions exposes session ordering to the external test package.
var SortSessions = sortSessions
