// Package dataset holds the reference population: historical customer records
// that already carry an assigned cluster index.
//
// A Table is parsed once from CSV and is read-only afterwards. Numeric columns
// are detected the way a dataframe would: a column is numeric when every
// non-empty cell parses as a finite number. Empty numeric cells are kept as
// missing values and skipped by aggregations.
//
// # Layout
//
//	Age,Income Level,PC1,PC2,Cluster,Cluster_Name
//	34,52000,-0.41,1.20,0,Young Savers
//
// The cluster column is required. The display-name column and the component
// columns (prefix followed by a 1-based index) are optional.
package dataset
