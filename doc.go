// dqk is the Data Quality Kit. It contains the pieces needed to pull tabular
// records out of wherever they happen to live, run them through a set of named
// data-quality expectations, and land the records which survive along with a
// report of everything that didn't.
//
// The quality pipeline has three stages, and interfaces plus basic
// implementations of each are included in the DQK. More involved
// implementations which rely on other software live in sub-packages.
//
// 1. Source
//
//    A dqk.Source is at the beginning of every quality-checking journey. Your
//    data is everywhere - S3 buckets, local files, Kafka topics, CSVs behind
//    HTTP endpoints, hard-coded in tests. Different Sources know how to
//    interact with the various systems holding your data and get it out one
//    record at a time, all wrapped up behind one convenient interface. To
//    write a new Source, simply implement the Source interface, returning
//    whatever comes naturally from the underlying client library or API. It
//    is not the Source's job to decide whether a record is any good - that
//    job falls to the Checker.
//
// 2. Checker
//
//    The Checker holds an ordered set of Expectations. An Expectation is a
//    named predicate over a record bound to one of three actions: Warn counts
//    and logs the violation but keeps the record, Drop counts it and excludes
//    the record from the output, and Fail counts it and aborts the whole run.
//    Calling Checker.Evaluate against a Source produces a Run, which is
//    itself a Source: records are pulled lazily, checked in registration
//    order, and only survivors come out the other side. Violation counts are
//    owned by the Run, so independent evaluations never share state.
//
// 3. Sink
//
//    The Sink is where surviving records end up. The built-in JSONSink writes
//    newline-delimited JSON; anything else (a database loader, a message
//    producer) just needs Add and Close.
//
// The Runner ties the three together, feeds a Statter and Logger along the
// way, and produces a Report which the BoltReporter can persist per pipeline.
package dqk
