// Package ontevent sends email notifications to study contacts when
// something happens to an Oxford Nanopore (ONT) run, such as upload or
// basecalling. Producers turn run records into Porch tasks; consumers
// claim the tasks, look up the contacts of the studies on the run in
// the warehouse, and send one email per run.
package ontevent
